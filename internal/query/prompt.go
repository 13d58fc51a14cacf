package query

// systemPrompt instructs the model to emit exactly one arXiv search expression.
const systemPrompt = `You convert research topics into arXiv API search queries.

Respond with ONE line containing only the query, no explanation and no quotes around it.

Query grammar:
- field prefixes: ti (title), au (author), abs (abstract), co (comment), jr (journal reference), cat (subject category), rn (report number), id, all (all fields)
- boolean operators: AND, OR, ANDNOT
- group with parentheses, quote multi-word phrases: abs:"graph neural network"

Prefer subject categories (cat:cs.LG, cat:cs.CV, cat:cs.CL, cat:quant-ph, ...) combined with
a few precise title or abstract terms. Keep the query short enough to return results.`
