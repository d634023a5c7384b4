package mcpserver

// SectionFormatContract describes how plan Markdown is split into sections.
// LLM consumers should follow it when writing plans for import.
const SectionFormatContract = `# PlanInsta Section Format

A business plan is plain Markdown. It is split into a flat list of sections.

## Rules

1. Every line that starts with one or more ` + "`#`" + ` followed by whitespace opens a new
   section. Heading level is ignored: sections never nest.
2. The heading text (trimmed) is the section title. Everything up to the next heading,
   trimmed, is the section content.
3. Text before the first heading becomes a section titled "Introduction".
4. A document without any heading becomes a single "Business Plan Overview" section.
5. Sections with neither title nor content are dropped.
6. Do not use asterisks for emphasis; plans are rendered as plain Markdown.

## Serialization

When a section is edited the plan text is rebuilt as ` + "`## {title}`" + `, a blank line, the
content, and two blank lines between sections.

## Frontmatter (import only)

An optional YAML block at the top supplies plan metadata:

` + "```" + `markdown
---
name: Coffee Corner Plan     # plan display name
company_name: Bean Co
industry: Cafe/Restaurant
language: en                 # en, es, fr, de, ja, pt, it, zh
---

## Executive Summary

...
` + "```" + `
`
