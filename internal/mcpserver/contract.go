package mcpserver

// MomentFormatContract describes the canonical moment shape that LLM
// consumers should follow when appending journal entries.
const MomentFormatContract = `# PDA.OK Moment Format Contract

A moment is one journal or substance-log entry.

## Structure

` + "```" + `json
{
  "journal": "journal",
  "tone": "settled",
  "frequency": "",
  "presence": "at the desk, late light",
  "context": "after the afternoon walk",
  "action_reflection": "kept the walk short but actually left the house",
  "result_shift": "less static in the chest",
  "conclusion_offering": "the block is enough",
  "text": "Free-form body of the moment.",
  "allyId": "ally-caffeine"
}
` + "```" + `

## Rules

1. **All text fields are optional** but at least one must be non-empty.
   Omitted fields are stored as empty strings, never null.
2. **journal** selects the target list: ` + "`" + `journal` + "`" + ` (default) or
   ` + "`" + `substance` + "`" + `.
3. **allyId**, when set, must be an existing ally id; the moment is then
   mirrored into that ally's log in the same operation.
4. **id, timestamp, date** are assigned by the server; do not supply them.
5. **Encoding** is UTF-8.

## Ally ids

Canonical allies ship with the app (` + "`" + `ally-caffeine` + "`" + `,
` + "`" + `ally-cannabis` + "`" + `, ` + "`" + `ally-psilocybin` + "`" + `); user-created allies have
generated ids. Use the REST API or state snapshot to discover them.
`
