package vtable

import (
	"testing"

	"github.com/ValentinKolb/dDoc/lib/doctable"
	dttesting "github.com/ValentinKolb/dDoc/lib/doctable/testing"
)

func Test(t *testing.T) {
	dttesting.RunDocTableTests(t, "VTable", func() doctable.IDocTable {
		return NewVTable()
	})
}
