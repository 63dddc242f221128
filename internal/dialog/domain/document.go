package domain

// BlockKind is the kind of a structured document component.
type BlockKind string

const (
	BlockHeader    BlockKind = "HEADER"
	BlockParagraph BlockKind = "PARAGRAPH"
)

// DocumentBlock is one typed component of a message's structured document.
// The ordered block list is used both for rendering and for the archive's
// plain-text representation.
type DocumentBlock struct {
	Kind BlockKind `json:"kind"`
	Text string    `json:"text"`
}

// DocumentText flattens an ordered block list into the plain text stored
// alongside an archive submission.
func DocumentText(blocks []DocumentBlock) string {
	var out string
	for i, b := range blocks {
		if i > 0 {
			out += "\n"
		}
		out += b.Text
	}
	return out
}
