package export

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// Section pairs a heading with a table; a patient report is a list of sections.
type Section struct {
	Title string
	Lines []string
	Table Dataset
}

// Report is the renderable form of a patient record dump.
type Report struct {
	Title    string
	Subtitle string
	Sections []Section
}
