package omr

import (
	"log/slog"
	"path/filepath"

	"github.com/jsphweid/scoretrack/model"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// SymbolLibrary is the template configuration of a converter: one class per
// category with its prototype images. It is built once and only read
// afterwards, so any number of pages may share it.
type SymbolLibrary struct {
	classes    map[model.Category]model.TemplateClass
	prototypes map[model.Category][]gocv.Mat
}

// LoadLibrary reads the prototype images of classes from dir as grayscale.
func LoadLibrary(dir string, classes []model.TemplateClass) (*SymbolLibrary, error) {
	lib := &SymbolLibrary{
		classes:    make(map[model.Category]model.TemplateClass),
		prototypes: make(map[model.Category][]gocv.Mat),
	}
	for _, class := range classes {
		for _, name := range class.Variants {
			path := filepath.Join(dir, name)
			img := gocv.IMRead(path, gocv.IMReadGrayScale)
			if img.Empty() {
				lib.Close()
				return nil, errors.Errorf("could not read template %s", path)
			}
			lib.prototypes[class.Category] = append(lib.prototypes[class.Category], img)
		}
		lib.classes[class.Category] = class
		slog.Debug("omr: templates loaded", "category", class.Category, "variants", len(class.Variants))
	}
	return lib, nil
}

// NewLibrary builds a library from prototypes already in memory. The library
// takes ownership of the Mats.
func NewLibrary(classes []model.TemplateClass, prototypes map[model.Category][]gocv.Mat) *SymbolLibrary {
	lib := &SymbolLibrary{
		classes:    make(map[model.Category]model.TemplateClass),
		prototypes: prototypes,
	}
	for _, class := range classes {
		lib.classes[class.Category] = class
	}
	return lib
}

func (l *SymbolLibrary) Class(c model.Category) (model.TemplateClass, bool) {
	class, ok := l.classes[c]
	return class, ok
}

func (l *SymbolLibrary) Prototypes(c model.Category) []gocv.Mat {
	return l.prototypes[c]
}

func (l *SymbolLibrary) Close() {
	for _, mats := range l.prototypes {
		for _, m := range mats {
			m.Close()
		}
	}
}
