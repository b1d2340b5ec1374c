package mcpserver

// DeckFormatContract describes the canonical deck JSON shape that LLM
// consumers should follow when creating decks.
const DeckFormatContract = `# Flashdeck Deck Format Contract

Every deck created through the MCP tools MUST follow this structure.

## Structure

` + "```" + `json
{
  "name": "Animals",
  "cards": [
    {"front": "cat", "back": "meow"},
    {"front": "dog", "back": "woof", "hint": "it barks"},
    {"front": "cow", "back": "moo", "image": "/media/cow.png"}
  ]
}
` + "```" + `

## Rules

1. **` + "`" + `name` + "`" + ` is the deck's display title.** An empty name is replaced
   with a placeholder on save, so always set one.
2. **` + "`" + `cards` + "`" + ` is a JSON array.** Each card needs a non-blank ` + "`" + `front` + "`" + `;
   cards with a blank front are silently dropped on save.
3. **` + "`" + `back` + "`" + ` is optional.** A card with no back is shown front-only and
   the reveal step is a no-op for it.
4. **` + "`" + `hint` + "`" + ` and ` + "`" + `image` + "`" + ` are optional.** ` + "`" + `image` + "`" + ` is a URL path under
   ` + "`" + `/media/` + "`" + ` as returned by the upload endpoint.
5. **Do not set ` + "`" + `id` + "`" + ` fields.** Deck and card ids are assigned by the
   server; a deck created with an id that already exists is rejected.
6. **Keep fronts short.** The audience is early readers: single words,
   letters, or small numbers work best.

## Example

A sight-words deck for a beginning reader:

` + "```" + `json
{
  "name": "Sight words",
  "cards": [
    {"front": "the"},
    {"front": "and"},
    {"front": "see", "hint": "what your eyes do"}
  ]
}
` + "```" + `
`
