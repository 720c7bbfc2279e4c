/*
Package testfilter filters and partitions a suite of test descriptors.

A suite is a []*Descriptor. A Filter takes the suite and a Values mapping and returns the
descriptors that pass, possibly annotating them in place: skip-if and run-if mark tests
disabled, fail-if marks them as expected to fail, subsuite normalises conditional subsuite names.
Chunkers select the tests belonging to one chunk out of N, by even slices, by directory, by
manifest, or by measured runtime.

Filters are composed with a FilterList, which applies its members in order and rejects duplicates:
at most one filter of each Kind, except for non-unique kinds such as tags, of which several
instances with different parameters may be combined (and their effect is a logical AND).

	filters := testfilter.DefaultFilterList(expression.New())
	tags, _ := testfilter.Tags("devtools")
	chunk, _ := testfilter.ChunkBySlice(2, 4, false)
	if err := filters.Append(tags, chunk); err != nil {
		return err
	}
	selected, err := filters.Apply(tests, values)

Every filter returns a new slice and never reorders its input, except for the directory, manifest and
runtime chunkers, which emit tests grouped by directory or manifest. Filters are eager: chunkers need
global counts before they can slice, and the rest simply follow suit.
*/
package testfilter
