// Package tables declares the NEMweb datasets the parser understands.
//
// Each dataset is one mms.Schema: the header key, the columns read from the
// data rows, and a build function producing the record variant. Adding a
// dataset means adding a variant in package mms and a schema here; the scan
// loop does not change.
package tables

import "github.com/JonMunkholm/nemweb/internal/mms"

// Register adds every known dataset to reg.
func Register(reg *mms.Registry) error {
	for _, s := range All() {
		if err := reg.Register(s); err != nil {
			return err
		}
	}
	return nil
}

// Registry returns a registry holding every known dataset.
func Registry() *mms.Registry {
	reg, _ := mms.NewRegistry()
	for _, s := range All() {
		reg.MustRegister(s)
	}
	return reg
}

// All returns the known dataset schemas in a stable order.
func All() []mms.Schema {
	return []mms.Schema{
		interconnectorSchema(),
		priceSchema(),
		rooftopActualSchema(),
		rooftopForecastSchema(),
	}
}
