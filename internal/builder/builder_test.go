package builder_test

import (
	"go/ast"
	"go/parser"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frherrer/errgen/internal/builder"
	"github.com/frherrer/errgen/internal/domain"
)

func typeExpr(src string) ast.Expr {
	expr, err := parser.ParseExpr(src)
	Expect(err).ToNot(HaveOccurred())
	return expr
}

func field(name, typ string) domain.FieldSpec {
	return domain.FieldSpec{Name: name, DeclaredType: typ, TypeExpr: typeExpr(typ)}
}

var _ = Describe("Builder", func() {
	var b *builder.Builder

	BeforeEach(func() {
		b = builder.NewBuilder()
	})

	It("should lead every type with the injected bookkeeping fields", func() {
		gen, err := b.Build(domain.ErrorSpec{TypeName: "E"})
		Expect(err).ToNot(HaveOccurred())
		Expect(gen.Fields).To(HaveLen(2))
		Expect(gen.Fields[0].Name).To(Equal(builder.MsgField))
		Expect(gen.Fields[0].DeclaredType).To(Equal("string"))
		Expect(gen.Fields[1].Name).To(Equal(builder.InnerMsgsField))
		Expect(gen.Fields[1].DeclaredType).To(Equal("[]string"))
		Expect(gen.Union).To(BeNil())
		Expect(gen.Template).To(BeNil())
	})

	It("should keep declared fields in declaration order", func() {
		spec := domain.ErrorSpec{
			TypeName: "E",
			Fields: []domain.FieldSpec{
				field("Key", "string"),
				field("Retries", "int"),
			},
		}
		spec.Fields[1].DefaultOverride = "3"

		gen, err := b.Build(spec)
		Expect(err).ToNot(HaveOccurred())
		Expect(gen.Fields).To(HaveLen(4))
		Expect(gen.Fields[2].Name).To(Equal("Key"))
		Expect(gen.Fields[2].Init).To(BeEmpty())
		Expect(gen.Fields[3].Name).To(Equal("Retries"))
		Expect(gen.Fields[3].Init).To(Equal("3"))
	})

	It("should synthesize a union for source fields and append the source field last", func() {
		spec := domain.ErrorSpec{
			TypeName: "LookupError",
			Fields: []domain.FieldSpec{
				{Name: "FileErr", DeclaredType: "*os.PathError", TypeExpr: typeExpr("*os.PathError"), IsSource: true},
				field("Key", "string"),
			},
		}

		gen, err := b.Build(spec)
		Expect(err).ToNot(HaveOccurred())
		Expect(gen.Union).ToNot(BeNil())
		Expect(gen.Union.TypeName).To(Equal("LookupErrorSource"))
		Expect(gen.Union.KindName).To(Equal("lookupErrorSourceKind"))
		Expect(gen.Union.NoneName).To(Equal("lookupErrorSourceNone"))
		Expect(gen.Union.Variants).To(HaveLen(1))
		Expect(gen.Union.Variants[0].FieldName).To(Equal("FileErr"))
		Expect(gen.Union.Variants[0].PayloadType).To(Equal("*os.PathError"))
		Expect(gen.Union.Variants[0].ConstName).To(Equal("lookupErrorSourceFileErr"))
		Expect(gen.Union.Variants[0].CtorName).To(Equal("LookupErrorSourceFileErr"))

		last := gen.Fields[len(gen.Fields)-1]
		Expect(last.Name).To(Equal(builder.SourceField))
		Expect(last.DeclaredType).To(Equal("LookupErrorSource"))
	})

	It("should fold multiple source fields into one union", func() {
		spec := domain.ErrorSpec{
			TypeName: "E",
			Fields: []domain.FieldSpec{
				{Name: "ioErr", DeclaredType: "error", TypeExpr: typeExpr("error"), IsSource: true},
				{Name: "netErr", DeclaredType: "error", TypeExpr: typeExpr("error"), IsSource: true},
			},
		}

		gen, err := b.Build(spec)
		Expect(err).ToNot(HaveOccurred())
		Expect(gen.Union.Variants).To(HaveLen(2))
		Expect(gen.Union.Variants[0].CtorName).To(Equal("ESourceIoErr"))
		Expect(gen.Union.Variants[1].CtorName).To(Equal("ESourceNetErr"))
		// One source field regardless of how many variants feed it.
		Expect(gen.Fields).To(HaveLen(3))
	})

	It("should reject fields named after the injected bookkeeping fields", func() {
		for _, name := range []string{"msg", "innerMsgs", "source"} {
			spec := domain.ErrorSpec{
				TypeName: "E",
				Fields:   []domain.FieldSpec{field(name, "string")},
			}
			_, err := b.Build(spec)
			Expect(err).To(HaveOccurred())
			de, ok := err.(*domain.Error)
			Expect(ok).To(BeTrue())
			Expect(de.Kind).To(Equal(domain.MalformedAnnotation))
			Expect(de.Message).To(ContainSubstring("reserved"))
		}
	})

	It("should reject func-typed fields without an override", func() {
		spec := domain.ErrorSpec{
			TypeName: "E",
			Fields:   []domain.FieldSpec{field("Retry", "func() error")},
		}
		_, err := b.Build(spec)
		Expect(err).To(HaveOccurred())
		de, ok := err.(*domain.Error)
		Expect(ok).To(BeTrue())
		Expect(de.Kind).To(Equal(domain.UnsupportedFieldType))
		Expect(de.Suggestion).To(ContainSubstring("errgen:default"))
	})

	It("should accept func-typed fields with an override", func() {
		spec := domain.ErrorSpec{
			TypeName: "E",
			Fields:   []domain.FieldSpec{field("Retry", "func() error")},
		}
		spec.Fields[0].DefaultOverride = "noRetry"

		gen, err := b.Build(spec)
		Expect(err).ToNot(HaveOccurred())
		Expect(gen.Fields[2].Init).To(Equal("noRetry"))
	})

	It("should reject chan-typed fields without an override", func() {
		spec := domain.ErrorSpec{
			TypeName: "E",
			Fields:   []domain.FieldSpec{field("Done", "chan struct{}")},
		}
		_, err := b.Build(spec)
		Expect(err).To(HaveOccurred())
	})

	Describe("format templates", func() {
		It("should split literals and placeholders", func() {
			spec := domain.ErrorSpec{
				TypeName:       "E",
				FormatTemplate: "{Code}: {msg}{inner_msgs}",
				Fields:         []domain.FieldSpec{field("Code", "int")},
			}

			gen, err := b.Build(spec)
			Expect(err).ToNot(HaveOccurred())
			Expect(gen.Template).To(HaveLen(4))
			Expect(gen.Template[0].Placeholder).To(Equal("Code"))
			Expect(gen.Template[1].Literal).To(Equal(": "))
			Expect(gen.Template[2].Placeholder).To(Equal("msg"))
			Expect(gen.Template[3].Placeholder).To(Equal("inner_msgs"))
		})

		It("should allow the source placeholder only when a union exists", func() {
			spec := domain.ErrorSpec{
				TypeName:       "E",
				FormatTemplate: "{msg}{source}",
				Fields: []domain.FieldSpec{
					{Name: "Cause", DeclaredType: "error", TypeExpr: typeExpr("error"), IsSource: true},
				},
			}
			_, err := b.Build(spec)
			Expect(err).ToNot(HaveOccurred())

			spec = domain.ErrorSpec{TypeName: "E", FormatTemplate: "{msg}{source}"}
			_, err = b.Build(spec)
			Expect(err).To(HaveOccurred())
		})

		It("should reject unknown placeholders", func() {
			spec := domain.ErrorSpec{TypeName: "E", FormatTemplate: "{nope}"}
			_, err := b.Build(spec)
			Expect(err).To(HaveOccurred())
			de := err.(*domain.Error)
			Expect(de.Kind).To(Equal(domain.MalformedAnnotation))
			Expect(de.Message).To(ContainSubstring("unknown field"))
		})

		It("should reject unclosed placeholders", func() {
			spec := domain.ErrorSpec{TypeName: "E", FormatTemplate: "{msg"}
			_, err := b.Build(spec)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unclosed"))
		})
	})

	Describe("ZeroLiteral", func() {
		It("should map basic types to their literal zero", func() {
			Expect(builder.ZeroLiteral(typeExpr("int"))).To(Equal("0"))
			Expect(builder.ZeroLiteral(typeExpr("string"))).To(Equal(`""`))
			Expect(builder.ZeroLiteral(typeExpr("bool"))).To(Equal("false"))
			Expect(builder.ZeroLiteral(typeExpr("error"))).To(Equal("nil"))
		})

		It("should map reference types to nil", func() {
			Expect(builder.ZeroLiteral(typeExpr("*Foo"))).To(Equal("nil"))
			Expect(builder.ZeroLiteral(typeExpr("[]byte"))).To(Equal("nil"))
			Expect(builder.ZeroLiteral(typeExpr("map[string]int"))).To(Equal("nil"))
			Expect(builder.ZeroLiteral(typeExpr("chan int"))).To(Equal("nil"))
			Expect(builder.ZeroLiteral(typeExpr("func()"))).To(Equal("nil"))
		})

		It("should fall back to *new(T) for named and array types", func() {
			Expect(builder.ZeroLiteral(typeExpr("time.Duration"))).To(Equal("*new(time.Duration)"))
			Expect(builder.ZeroLiteral(typeExpr("Foo"))).To(Equal("*new(Foo)"))
			Expect(builder.ZeroLiteral(typeExpr("[4]int"))).To(Equal("*new([4]int)"))
		})
	})

	Describe("UpperFirst", func() {
		It("should export identifiers", func() {
			Expect(builder.UpperFirst("fileErr")).To(Equal("FileErr"))
			Expect(builder.UpperFirst("")).To(BeEmpty())
		})
	})
})
