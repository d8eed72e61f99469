package email

// Template names an HTML file under templates/, without extension.
type Template string

const (
	TemplateSaleChanged Template = "sale_changed"
)
