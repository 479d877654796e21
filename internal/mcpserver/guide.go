package mcpserver

// SearchGuide explains to MCP clients how case ranking works and which
// parameters to pass.
const SearchGuide = `# casedesk Search Guide

Cases are ranked with TF-IDF vectors and cosine similarity. The vector
space is rebuilt from every stored case on each call, so results always
reflect the current data.

## Scopes (search_cases)

| scope         | text searched                                                    |
|---------------|------------------------------------------------------------------|
| all (default) | description, employer, worker, timeline, reports, evidence, briefing note |
| description   | case description only                                            |
| reports       | investigation report contents                                    |
| timeline      | timeline event descriptions                                      |
| evidence      | evidence log descriptions                                        |

## Scores and thresholds

- Scores are between 0 and 1. Every result scores at least min_relevance.
- A query sharing no words with a case scores 0 for it.
- Common English words ("the", "and", "fire", ...) are ignored.
- Start with min_relevance 0.3 for focused queries. Drop to 0.1 when a
  query is a single rare word and nothing comes back.
- find_similar_cases compares description, employer, worker and timeline.
  Its default threshold is 0.4; the reference case is never returned.
- Values above 1 are read as percentages (30 means 0.3).

## Tags (suggest_tags)

Tags are the highest-weighted words of each description, title-cased,
without generic words such as case, incident, worker or employer. Hazard
tags are added first when the description mentions them:

- Electrical (electric), Fall Hazard (fall), Scaffolding (scaffold)
- Mining (mining, mine), Construction (construction)
- PPE (ppe, protection equipment)

## Exhibits

get_custody_chain returns the exhibit with its custody entries, oldest
first. The first entry is always CREATED. Hash values are stored as the
examiner supplied them and are not verified.
`
