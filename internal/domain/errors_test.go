package domain_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frherrer/errgen/internal/domain"
)

var _ = Describe("Error", func() {
	It("should render kind, location, message and cause", func() {
		cause := errors.New("boom")
		err := domain.NewError(domain.MalformedAnnotation, "store.go", 12, "bad directive", cause)
		Expect(err.Error()).To(Equal("[malformed-annotation] store.go:12: bad directive: boom"))
	})

	It("should append the suggestion in parentheses", func() {
		err := domain.NewErrorWithSuggestion(domain.NoConversionPath, "store.go", 3,
			"no provider", "declare one", nil)
		Expect(err.Error()).To(Equal("[no-conversion-path] store.go:3: no provider (declare one)"))
	})

	It("should omit empty location parts", func() {
		err := domain.NewError(domain.KindConfig, "", 0, "bad config", nil)
		Expect(err.Error()).To(Equal("[config]: bad config"))
	})

	It("should unwrap to the cause", func() {
		cause := errors.New("boom")
		err := domain.NewError(domain.KindParse, "f.go", 1, "parse", cause)
		Expect(errors.Is(err, cause)).To(BeTrue())
	})
})
