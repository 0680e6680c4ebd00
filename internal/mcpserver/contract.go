package mcpserver

// BlockFormatContract describes the stored block format that LLM consumers
// should follow when creating or editing project documents.
const BlockFormatContract = `# Folio Block Format Contract

A project document is an ordered JSON array of blocks. Every block is an
object with a unique string ` + "`id`" + ` and a ` + "`type`" + `; the remaining members
depend on the type.

## Block types

| type      | members |
|-----------|---------|
| paragraph | ` + "`content`" + ` (string) |
| heading   | ` + "`content`" + ` (string), ` + "`level`" + ` (1-6, default 2) |
| image     | ` + "`content`" + `: {` + "`url`, `alt`, `caption`, `width`, `height`" + `} |
| code      | ` + "`content`" + ` (source), ` + "`language`" + `, optional ` + "`filename`" + ` |
| list      | ` + "`content`" + ` (array of strings), ` + "`listType`" + ` (bullet or numbered) |
| quote     | ` + "`content`" + ` (string), optional ` + "`author`" + ` |
| link      | ` + "`content`" + `: {` + "`url`, `title`, `description`, `image`" + `} |
| divider   | no members |

## Rules

1. **Never invent ids.** Use the ` + "`add_block`" + ` tool; it returns the new block with
   a fresh ` + "`block-<uuid>`" + ` id.
2. **Edits are partial.** ` + "`update_block`" + ` takes a patch such as
   ` + "`{\"text\": \"New title\", \"level\": 3}`" + `; omitted fields are left as they are.
   Patch keys: text, level, url, alt, caption, width, height, language, filename,
   items, listType, author, title, description, image.
3. **Headings get anchors** derived from their text (` + "`heading-<slug>`" + `). Repeated
   headings get ` + "`-2`, `-3`" + ` suffixes. Keep heading text short and unique.
4. **Indices are zero-based.** ` + "`reorder_blocks`" + ` moves the block at ` + "`from`" + ` so that
   it ends up at ` + "`to`" + `.
5. **Optimistic concurrency.** Every edit tool accepts the ` + "`checksum`" + ` returned by
   the previous call as ` + "`if_match`" + `; a mismatch means someone else saved first.
6. **Unknown block types** are kept in storage but never rendered.
7. **Code languages** offered by the editor: javascript, typescript, python, css,
   html, json, bash. Any chroma lexer name renders.

## Assets & Images

- Upload images via the ` + "`upload_asset`" + ` tool (http(s) URL or base64 data URI).
  It returns the ` + "`url`" + ` to put in an image block.
- Supported formats: png, jpg, jpeg, gif, webp, svg.
- Images without a url render a placeholder.

## Example

` + "```" + `json
[
  {"id": "block-1", "type": "heading", "content": "Setup", "level": 2},
  {"id": "block-2", "type": "paragraph", "content": "Install the dependencies."},
  {"id": "block-3", "type": "code", "content": "npm install", "language": "bash"},
  {"id": "block-4", "type": "image", "content": {"url": "/assets/shot-1700000000000.png", "alt": "Screenshot", "caption": ""}}
]
` + "```" + `
`
