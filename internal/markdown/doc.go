// Package markdown implements the document pipeline: discovering Markdown
// files on disk, extracting front matter, rendering bodies to HTML, and
// synchronising the results with the post index.
package markdown
