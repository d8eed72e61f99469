package email

// PreviewData holds sample data for every template, keyed by template.
// Tests render each entry to keep templates and data in step.
var PreviewData = map[Template]any{
	TemplateSaleChanged: SaleChangedData{
		Action:       "updated",
		SaleID:       42,
		Manufacturer: "Toyota",
		Model:        "Corolla",
		Price:        "15000.00",
		OccurredAt:   "2024-05-01T10:00:00Z",
	},
}
