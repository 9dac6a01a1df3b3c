package report_test

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frherrer/errgen/internal/builder"
	"github.com/frherrer/errgen/internal/config"
	"github.com/frherrer/errgen/internal/domain"
	"github.com/frherrer/errgen/internal/report"
)

func buildType(spec domain.ErrorSpec) *domain.GeneratedType {
	gen, err := builder.NewBuilder().Build(spec)
	Expect(err).ToNot(HaveOccurred())
	return gen
}

var _ = Describe("Report", func() {
	var (
		w      *report.Writer
		file   string
		tmpDir string
		types  []*domain.GeneratedType
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "errgen-report-*")
		Expect(err).ToNot(HaveOccurred())
		file = filepath.Join(tmpDir, "ERRORS.md")
		w = report.NewWriter(config.ReportConfig{File: file, Title: "Error catalog"})

		lookup := domain.ErrorSpec{TypeName: "LookupError", File: "store.go"}
		lookup.Fields = []domain.FieldSpec{{Name: "Key", DeclaredType: "string"}}
		coded := domain.ErrorSpec{TypeName: "CodedError", File: "store.go", FormatTemplate: "{msg}"}
		types = []*domain.GeneratedType{buildType(lookup), buildType(coded)}
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("Render", func() {
		It("should list every type as a level-2 heading, sorted", func() {
			out, err := w.Render(types)
			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(ContainSubstring("# Error catalog"))
			codedAt := strings.Index(out, "## CodedError")
			lookupAt := strings.Index(out, "## LookupError")
			Expect(codedAt).To(BeNumerically(">", 0))
			Expect(lookupAt).To(BeNumerically(">", codedAt))
		})

		It("should document fields and format", func() {
			out, err := w.Render(types)
			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(ContainSubstring("`Key string`"))
			Expect(out).To(ContainSubstring("Format: `{msg}`"))
			Expect(out).To(ContainSubstring("Format: default"))
			Expect(out).To(ContainSubstring("Declared in store.go."))
		})
	})

	Describe("Write and Check", func() {
		It("should round-trip without drift", func() {
			Expect(w.Write(types)).To(Succeed())

			drift, err := w.Check(types)
			Expect(err).ToNot(HaveOccurred())
			Expect(drift).To(BeEmpty())
		})

		It("should report generated types missing from the catalog", func() {
			Expect(w.Write(types[:1])).To(Succeed())

			drift, err := w.Check(types)
			Expect(err).ToNot(HaveOccurred())
			Expect(drift).To(HaveLen(1))
			Expect(drift[0]).To(ContainSubstring("CodedError"))
			Expect(drift[0]).To(ContainSubstring("missing"))
		})

		It("should report documented types that are no longer generated", func() {
			Expect(w.Write(types)).To(Succeed())

			drift, err := w.Check(types[:1])
			Expect(err).ToNot(HaveOccurred())
			Expect(drift).To(HaveLen(1))
			Expect(drift[0]).To(ContainSubstring("CodedError"))
			Expect(drift[0]).To(ContainSubstring("no longer generated"))
		})

		It("should treat a missing catalog as fully undocumented", func() {
			drift, err := w.Check(types)
			Expect(err).ToNot(HaveOccurred())
			Expect(drift).To(HaveLen(2))
		})
	})
})
