package apconfig_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vprap/internal/apconfig"
	"github.com/sarchlab/vprap/internal/apnetlist"
	"github.com/sarchlab/vprap/internal/density"
)

var _ = Describe("ParseTargetDensities", func() {
	It("treats an empty argument list as no overrides", func() {
		out, err := apconfig.ParseTargetDensities(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(BeEmpty())
	})

	It("treats the single string auto as no overrides", func() {
		out, err := apconfig.ParseTargetDensities([]string{"auto"})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(BeEmpty())
	})

	It("parses a comma-separated tile:factor list", func() {
		out, err := apconfig.ParseTargetDensities([]string{"clb:0.8,io:1.2"})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ConsistOf(
			density.TargetDensityOverride{TileType: "clb", Factor: 0.8},
			density.TargetDensityOverride{TileType: "io", Factor: 1.2},
		))
	})

	It("rejects a malformed entry with no colon", func() {
		_, err := apconfig.ParseTargetDensities([]string{"clb=0.8"})
		Expect(err).To(HaveOccurred())
	})

	It("rejects a non-numeric factor", func() {
		_, err := apconfig.ParseTargetDensities([]string{"clb:nope"})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("LoadFlatPlacementHint", func() {
	It("loads block locations and normalizes sentinel axes to UnsetAxis", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "hint.yaml")
		contents := `
blocks:
  - name: blk0
    x: 3
    y: 4
    layer: 0
    sub_tile: 1
  - name: blk1
    x: -1
    y: 7
    layer: -1
    sub_tile: -1
`
		Expect(os.WriteFile(path, []byte(contents), 0o644)).To(Succeed())

		hint, err := apconfig.LoadFlatPlacementHint(path)
		Expect(err).NotTo(HaveOccurred())

		locs := hint.FixedLocs()
		Expect(locs["blk0"]).To(Equal(apnetlist.FixedLoc{X: 3, Y: 4, Layer: 0, SubTile: 1}))
		Expect(locs["blk1"]).To(Equal(apnetlist.FixedLoc{
			X: apnetlist.UnsetAxis, Y: 7, Layer: apnetlist.UnsetAxis, SubTile: apnetlist.UnsetAxis,
		}))
	})

	It("errors when the file does not exist", func() {
		_, err := apconfig.LoadFlatPlacementHint("/nonexistent/hint.yaml")
		Expect(err).To(HaveOccurred())
	})
})
