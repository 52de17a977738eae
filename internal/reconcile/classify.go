// Package reconcile compares a target variant index against a reference
// index and classifies the allele relationship at every shared site.
package reconcile

import (
	"fmt"
	"strings"

	"github.com/inodb/checkref/internal/genome"
)

// Class is the relationship between target and reference alleles at a site.
type Class int

// Classes in precedence order.
const (
	Match Class = iota
	Switch
	Complement
	ComplementSwitch
	Other
	numClasses
)

var classNames = [numClasses]string{
	Match:            "MATCH",
	Switch:           "SWITCH",
	Complement:       "COMPLEMENT",
	ComplementSwitch: "COMPLEMENT_SWITCH",
	Other:            "OTHER",
}

// Classes lists every class in precedence order.
func Classes() []Class {
	return []Class{Match, Switch, Complement, ComplementSwitch, Other}
}

func (c Class) String() string {
	if c < 0 || c >= numClasses {
		return fmt.Sprintf("Class(%d)", int(c))
	}
	return classNames[c]
}

// ParseClass parses a class name such as "COMPLEMENT_SWITCH".
func ParseClass(s string) (Class, error) {
	for c, name := range classNames {
		if strings.EqualFold(s, name) {
			return Class(c), nil
		}
	}
	return Other, fmt.Errorf("unknown class %q", s)
}

// Classify returns the first class whose condition holds.
func Classify(target, ref genome.Alleles) Class {
	switch {
	case target.Ref == ref.Ref && target.Alt == ref.Alt:
		return Match
	case target.Ref == ref.Alt && target.Alt == ref.Ref:
		return Switch
	case genome.IsComplement(target.Ref, ref.Ref) && genome.IsComplement(target.Alt, ref.Alt):
		return Complement
	case genome.IsComplement(target.Ref, ref.Alt) && genome.IsComplement(target.Alt, ref.Ref):
		return ComplementSwitch
	default:
		return Other
	}
}

// Tally counts classified sites per class.
type Tally [numClasses]int

// Add counts one site of class c.
func (t *Tally) Add(c Class) {
	t[c]++
}

// Count returns the number of sites of class c.
func (t Tally) Count(c Class) int {
	return t[c]
}

// Total returns the number of classified sites.
func (t Tally) Total() int {
	n := 0
	for _, v := range t {
		n += v
	}
	return n
}
