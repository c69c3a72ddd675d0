package mcpserver

// DocumentFormatContract describes the canonical Markdown document format
// that LLM consumers should follow when saving documents.
const DocumentFormatContract = `# Othala Document Format Contract

Every document saved through Othala MUST follow this structure.

## Structure

` + "```" + `markdown
---
title: Human-readable title        # REQUIRED – shown in listings and history
author: Jane Doe                    # OPTIONAL
synopsis: One-line summary          # OPTIONAL – shown in directory listings
tags:                               # OPTIONAL – YAML list
  - tag-one
  - tag-two
---

Body text in standard Markdown.
` + "```" + `

## Rules

1. **YAML front matter is mandatory.** The ` + "```" + `---` + "```" + ` fences must be the first
   thing in the file (no leading blank lines).
2. **` + "`" + `title` + "`" + ` field is required.** A save without a title is rejected.
3. **Tags** are lowercase, kebab-case (e.g. ` + "`" + `project-x` + "`" + `, ` + "`" + `meeting-notes` + "`" + `).
4. **Documents are addressed** by directory and document slug; the file on
   disk is always ` + "`" + `index.md` + "`" + ` (or ` + "`" + `index.<code>.md` + "`" + ` for a translation).
5. **Encoding** is UTF-8 with a trailing newline.
6. **Saves are optimistic.** Every save is stamped with the repository
   revision the content was read at. If someone else committed in between,
   the save is rejected whole; re-read the document and retry.

## Example

` + "```" + `markdown
---
title: Release notes 2025-01
author: Jane Doe
tags:
  - releases
---

# Release notes 2025-01

Highlights from the January release.
` + "```" + `
`
