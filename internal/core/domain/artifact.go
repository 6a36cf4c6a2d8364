package domain

// Category is the destination-side bucket an artifact is routed to
// (a team folder, a document library section, a security label).
type Category struct {
	Name string `json:"name"`
	// Path is the container path below the project container. Empty means
	// the artifact lands in the project container itself.
	Path []string `json:"path,omitempty"`
}

// ArtifactType is an output format with its file extension and upload MIME type.
type ArtifactType struct {
	Name      string `json:"name"`
	Extension string `json:"extension"`
	MIMEType  string `json:"mime_type"`
}

// Binary reports whether the type is delivered as placeholder binary data
// rather than generated text.
func (t ArtifactType) Binary() bool {
	return t.Name == "PNG" || t.Name == "JPEG"
}

var (
	TypeTXT      = ArtifactType{Name: "TXT", Extension: ".txt", MIMEType: "text/plain"}
	TypeMarkdown = ArtifactType{Name: "MARKDOWN", Extension: ".md", MIMEType: "text/markdown"}
	TypeHTML     = ArtifactType{Name: "HTML", Extension: ".html", MIMEType: "text/html"}
	TypeCSV      = ArtifactType{Name: "CSV", Extension: ".csv", MIMEType: "text/csv"}
	TypeTSV      = ArtifactType{Name: "TSV", Extension: ".tsv", MIMEType: "text/tab-separated-values"}
	TypeRTF      = ArtifactType{Name: "RTF", Extension: ".rtf", MIMEType: "application/rtf"}
	TypeRST      = ArtifactType{Name: "RST", Extension: ".rst", MIMEType: "text/x-rst"}
	TypeSVG      = ArtifactType{Name: "SVG", Extension: ".svg", MIMEType: "image/svg+xml"}
	TypePNG      = ArtifactType{Name: "PNG", Extension: ".png", MIMEType: "image/png"}
	TypeJPEG     = ArtifactType{Name: "JPEG", Extension: ".jpeg", MIMEType: "image/jpeg"}
	TypePDF      = ArtifactType{Name: "PDF", Extension: ".pdf", MIMEType: "application/pdf"}
	TypeDOCX     = ArtifactType{Name: "DOCX", Extension: ".docx", MIMEType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document"}
	TypePPTX     = ArtifactType{Name: "PPTX", Extension: ".pptx", MIMEType: "application/vnd.openxmlformats-officedocument.presentationml.presentation"}
	TypeXLSX     = ArtifactType{Name: "XLSX", Extension: ".xlsx", MIMEType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"}
	TypeXLS      = ArtifactType{Name: "XLS", Extension: ".xls", MIMEType: "application/vnd.ms-excel"}

	// TypeIssue is the single artifact type of the issue tracker.
	TypeIssue = ArtifactType{Name: "ISSUE", MIMEType: "application/json"}
)

// DocumentTypes is the set used by the plain file destinations.
func DocumentTypes() []ArtifactType {
	return []ArtifactType{TypeTXT, TypeMarkdown, TypeHTML, TypeCSV, TypeRTF}
}

// AllFileTypes is the full catalog, used for drive uploads and issue attachments.
func AllFileTypes() []ArtifactType {
	return []ArtifactType{
		TypePDF, TypeDOCX, TypePPTX, TypeMarkdown, TypeHTML, TypeTXT, TypeRST,
		TypePNG, TypeJPEG, TypeRTF, TypeXLSX, TypeXLS, TypeCSV, TypeTSV, TypeSVG,
	}
}

// AttachmentTypes is the set used for email attachments.
func AttachmentTypes() []ArtifactType {
	return []ArtifactType{TypeTXT, TypeCSV, TypeHTML}
}

// GeneratedArtifact is one piece of synthetic content on its way to a destination.
type GeneratedArtifact struct {
	Index    int          `json:"index"` // 1-based position in the batch
	Name     string       `json:"name"`
	Category Category     `json:"category"`
	Type     ArtifactType `json:"type"`
	Title    string       `json:"title,omitempty"`
	Body     string       `json:"body,omitempty"`
	Text     string       `json:"text"`
}

// ByteLength is the size of the generated text content.
func (a GeneratedArtifact) ByteLength() int {
	return len(a.Text)
}

// DeliveryReceipt describes an artifact that landed at its destination.
type DeliveryReceipt struct {
	Name     string       `json:"name"`
	Category string       `json:"category"`
	Type     ArtifactType `json:"type"`
	Locator  string       `json:"locator"` // object key, item id, issue key, message id
	URL      string       `json:"url,omitempty"`
	Path     string       `json:"path,omitempty"`
	Size     int          `json:"size"`
	// Details carries destination-specific fields echoed back to the caller.
	Details map[string]any `json:"details,omitempty"`
}

// DeliveryFailure records an artifact that could not be delivered.
type DeliveryFailure struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// BatchResult is the outcome of one pipeline run.
type BatchResult struct {
	Success       bool              `json:"success"`
	CreatedCount  int               `json:"created_count"`
	Created       []DeliveryReceipt `json:"created"`
	Failed        []DeliveryFailure `json:"failed"`
	ContainerPath string            `json:"container_path"`
	ProjectName   string            `json:"project_name"`
}

// Attempted is the number of items the batch processed.
func (r *BatchResult) Attempted() int {
	return len(r.Created) + len(r.Failed)
}
