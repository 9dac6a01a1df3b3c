package directive_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frherrer/errgen/internal/directive"
	"github.com/frherrer/errgen/internal/domain"
)

var _ = Describe("Directive parser", func() {
	var p *directive.Parser

	BeforeEach(func() {
		p = directive.NewParser("errgen")
	})

	parse := func(src string) (*domain.ParsedFile, []*domain.Error) {
		parsed, diags, err := p.Parse("fixture.go", []byte(src))
		Expect(err).ToNot(HaveOccurred())
		return parsed, diags
	}

	Describe("HasBuildTag", func() {
		It("should recognize the tag in the file header", func() {
			src := "//go:build errgen\n\npackage x\n"
			Expect(directive.HasBuildTag([]byte(src), "errgen")).To(BeTrue())
		})

		It("should reject other tags", func() {
			src := "//go:build integration\n\npackage x\n"
			Expect(directive.HasBuildTag([]byte(src), "errgen")).To(BeFalse())
		})

		It("should ignore constraints after the package clause", func() {
			src := "package x\n\n//go:build errgen\n"
			Expect(directive.HasBuildTag([]byte(src), "errgen")).To(BeFalse())
		})

		It("should evaluate negated constraints", func() {
			src := "//go:build !errgen\n\npackage x\n"
			Expect(directive.HasBuildTag([]byte(src), "errgen")).To(BeFalse())
		})
	})

	Describe("Parse", func() {
		It("should extract specs, functions and providers from the sample fixture", func() {
			path := filepath.Join("..", "..", "testdata", "sample", "store.go")
			content, err := os.ReadFile(path)
			Expect(err).ToNot(HaveOccurred())

			parsed, diags, err := p.Parse(path, content)
			Expect(err).ToNot(HaveOccurred())
			Expect(diags).To(BeEmpty())

			Expect(parsed.PackageName).To(Equal("store"))
			Expect(parsed.MarkerName).To(Equal("errgen"))
			Expect(parsed.Specs).To(HaveLen(2))

			lookup := parsed.Specs[0]
			Expect(lookup.TypeName).To(Equal("LookupError"))
			Expect(lookup.FormatTemplate).To(BeEmpty())
			Expect(lookup.Fields).To(HaveLen(3))
			Expect(lookup.Fields[0].Name).To(Equal("Key"))
			Expect(lookup.Fields[0].DeclaredType).To(Equal("string"))
			Expect(lookup.Fields[1].Name).To(Equal("Retries"))
			Expect(lookup.Fields[1].DefaultOverride).To(Equal("3"))
			Expect(lookup.Fields[2].Name).To(Equal("FileErr"))
			Expect(lookup.Fields[2].IsSource).To(BeTrue())
			Expect(lookup.Fields[2].DeclaredType).To(Equal("*os.PathError"))

			coded := parsed.Specs[1]
			Expect(coded.TypeName).To(Equal("CodedError"))
			Expect(coded.FormatTemplate).To(Equal("{Code}: {msg}{inner_msgs}"))

			Expect(parsed.Funcs).To(HaveLen(2))
			Expect(parsed.Funcs[0].FuncName).To(Equal("Lookup"))
			Expect(parsed.Funcs[0].Message).To(Equal("lookup failed"))
			Expect(parsed.Funcs[0].ConvertOnly).To(BeFalse())
			Expect(parsed.Funcs[0].TargetType).To(Equal("LookupError"))
			Expect(parsed.Funcs[1].FuncName).To(Equal("Remove"))
			Expect(parsed.Funcs[1].ConvertOnly).To(BeTrue())

			Expect(parsed.Providers).To(BeEmpty())
		})

		It("should extract providers from untagged files", func() {
			path := filepath.Join("..", "..", "testdata", "sample", "provider.go")
			content, err := os.ReadFile(path)
			Expect(err).ToNot(HaveOccurred())

			parsed, diags, err := p.Parse(path, content)
			Expect(err).ToNot(HaveOccurred())
			Expect(diags).To(BeEmpty())
			Expect(parsed.Providers).To(HaveLen(1))
			Expect(parsed.Providers[0].FuncName).To(Equal("asLookupError"))
			Expect(parsed.Providers[0].TargetType).To(Equal("LookupError"))
		})

		It("should honor an aliased marker import", func() {
			src := `package x

import eg "github.com/frherrer/errgen"

var _ = eg.Check
`
			parsed, diags := parse(src)
			Expect(diags).To(BeEmpty())
			Expect(parsed.MarkerName).To(Equal("eg"))
		})

		It("should leave MarkerName empty without the import", func() {
			parsed, diags := parse("package x\n")
			Expect(diags).To(BeEmpty())
			Expect(parsed.MarkerName).To(BeEmpty())
		})

		It("should fail outright on invalid Go source", func() {
			_, _, err := p.Parse("fixture.go", []byte("package x\nfunc {"))
			Expect(err).To(HaveOccurred())
		})

		It("should reject a directive on a non-struct type", func() {
			src := `package x

//errgen:error
type E int
`
			parsed, diags := parse(src)
			Expect(parsed.Specs).To(BeEmpty())
			Expect(diags).To(HaveLen(1))
			Expect(diags[0].Kind).To(Equal(domain.MalformedAnnotation))
		})

		It("should reject a misspelled type directive", func() {
			src := `package x

//errgen:eror
type Typo struct{}
`
			parsed, diags := parse(src)
			Expect(parsed.Specs).To(BeEmpty())
			Expect(diags).To(HaveLen(1))
			Expect(diags[0].Kind).To(Equal(domain.MalformedAnnotation))
			Expect(diags[0].Message).To(ContainSubstring("unknown type directive errgen:eror"))
		})

		It("should reject a stray type directive next to a valid one", func() {
			src := `package x

//errgen:error
//errgen:bogus
type E struct{}
`
			parsed, diags := parse(src)
			Expect(parsed.Specs).To(BeEmpty())
			Expect(diags).To(HaveLen(1))
			Expect(diags[0].Message).To(ContainSubstring("unknown type directive errgen:bogus"))
		})

		It("should reject an unknown argument on errgen:error", func() {
			src := `package x

//errgen:error name="E"
type E struct{}
`
			_, diags := parse(src)
			Expect(diags).To(HaveLen(1))
			Expect(diags[0].Kind).To(Equal(domain.MalformedAnnotation))
			Expect(diags[0].Message).To(ContainSubstring("unknown argument"))
		})

		It("should reject an empty format template", func() {
			src := `package x

//errgen:error format=""
type E struct{}
`
			parsed, diags := parse(src)
			Expect(parsed.Specs).To(BeEmpty())
			Expect(diags).To(HaveLen(1))
			Expect(diags[0].Message).To(ContainSubstring("must not be empty"))
		})

		It("should reject a duplicate format argument", func() {
			src := `package x

//errgen:error format="" format="{msg}"
type E struct{}
`
			_, diags := parse(src)
			Expect(diags).To(HaveLen(1))
			Expect(diags[0].Kind).To(Equal(domain.MalformedAnnotation))
		})

		It("should reject an unquoted format argument", func() {
			src := `package x

//errgen:error format={msg}
type E struct{}
`
			_, diags := parse(src)
			Expect(diags).To(HaveLen(1))
			Expect(diags[0].Message).To(ContainSubstring("quoted string"))
		})

		It("should reject embedded fields", func() {
			src := `package x

type Base struct{}

//errgen:error
type E struct {
	Base
}
`
			_, diags := parse(src)
			Expect(diags).To(HaveLen(1))
			Expect(diags[0].Message).To(ContainSubstring("embedded"))
		})

		It("should reject errgen:source with arguments", func() {
			src := `package x

//errgen:error
type E struct {
	//errgen:source extra
	Cause error
}
`
			_, diags := parse(src)
			Expect(diags).To(HaveLen(1))
			Expect(diags[0].Message).To(ContainSubstring("no arguments"))
		})

		It("should reject a default override that is not an expression", func() {
			src := `package x

//errgen:error
type E struct {
	//errgen:default not an expr
	N int
}
`
			_, diags := parse(src)
			Expect(diags).To(HaveLen(1))
			Expect(diags[0].Message).To(ContainSubstring("not a valid Go expression"))
		})

		It("should reject source and default on the same field", func() {
			src := `package x

//errgen:error
type E struct {
	//errgen:source
	//errgen:default nil
	Cause error
}
`
			_, diags := parse(src)
			Expect(diags).To(HaveLen(1))
			Expect(diags[0].Message).To(ContainSubstring("default override"))
		})

		It("should reject an unknown field directive", func() {
			src := `package x

//errgen:error
type E struct {
	//errgen:rename cause
	Cause error
}
`
			_, diags := parse(src)
			Expect(diags).To(HaveLen(1))
			Expect(diags[0].Message).To(ContainSubstring("unknown field directive"))
		})

		It("should reject errgen:context without a quoted message", func() {
			src := `package x

//errgen:context
func F() *E { return nil }
`
			parsed, diags := parse(src)
			Expect(parsed.Funcs).To(BeEmpty())
			Expect(diags).To(HaveLen(1))
			Expect(diags[0].Message).To(ContainSubstring("quoted message"))
		})

		It("should reject conflicting rewrite directives", func() {
			src := `package x

//errgen:context "a"
//errgen:convert
func F() *E { return nil }
`
			_, diags := parse(src)
			Expect(diags).To(HaveLen(1))
			Expect(diags[0].Message).To(ContainSubstring("conflicting"))
		})

		It("should reject errgen:from with the wrong signature", func() {
			src := `package x

//errgen:from
func From(err error) E { return E{} }
`
			_, diags := parse(src)
			Expect(diags).To(HaveLen(1))
			Expect(diags[0].Message).To(ContainSubstring("func(error) *T"))
		})

		It("should reject a function that is both target and provider", func() {
			src := `package x

//errgen:convert
//errgen:from
func From(err error) *E { return nil }
`
			_, diags := parse(src)
			Expect(diags).To(HaveLen(1))
			Expect(diags[0].Message).To(ContainSubstring("both"))
		})

		It("should leave TargetType empty when the final result is not a pointer", func() {
			src := `package x

//errgen:context "no target"
func F() error { return nil }
`
			parsed, diags := parse(src)
			Expect(diags).To(BeEmpty())
			Expect(parsed.Funcs).To(HaveLen(1))
			Expect(parsed.Funcs[0].TargetType).To(BeEmpty())
		})

		It("should honor a custom prefix", func() {
			p = directive.NewParser("boom")
			src := `package x

//boom:error
type E struct{}
`
			parsed, diags := parse(src)
			Expect(diags).To(BeEmpty())
			Expect(parsed.Specs).To(HaveLen(1))
		})
	})
})
