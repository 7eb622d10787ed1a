package scrape

import "strings"

// Fixup is a literal text substitution applied to the page before parsing.
// It repairs markup the site got wrong, such as a thumbnail whose name does
// not match its large image or a missing alt text.
type Fixup struct {
	Old string `toml:"old"`
	New string `toml:"new"`
}

// DefaultFixups repairs the known defects of the grid page.
var DefaultFixups = []Fixup{
	{Old: "Yvonne_C._LozanoSM.jpg", New: "Yvonne-C.-LozanoSM.jpg"},
	{Old: `peter_rumpelSM.jpg" alt=""`, New: `peter_rumpelSM.jpg" alt="Peter Rumpel"`},
}

// Cleanup applies each fixup to the first occurrence of its Old text.
// Fixups run in order, so a later fixup sees the output of earlier ones.
// It returns the cleaned page and the number of fixups that matched.
func Cleanup(html string, fixups []Fixup) (string, int) {
	applied := 0
	for _, f := range fixups {
		if f.Old == "" || !strings.Contains(html, f.Old) {
			continue
		}
		html = strings.Replace(html, f.Old, f.New, 1)
		applied++
	}
	return html, applied
}
