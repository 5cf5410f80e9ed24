package model

import (
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"lukechampine.com/blake3"
)

// Describe returns one line per element below root (root excluded), sorted,
// covering names, kinds, containment, classes, values, coordinates and
// links. Two trees with equal descriptions are structurally equal.
func Describe(root *Element) []string {
	var lines []string
	for _, c := range root.children {
		c.walk(func(e *Element) {
			lines = append(lines, describeOne(root, e))
		})
	}
	sort.Strings(lines)
	return lines
}

func describeOne(root, e *Element) string {
	name, _ := e.NameRelativeTo(root)
	var b strings.Builder
	b.WriteString(e.kind.String())
	b.WriteString(" ")
	b.WriteString(name)
	b.WriteString(" class=")
	b.WriteString(e.Class)
	switch e.kind {
	case KindEntity:
		if e.ClassDef {
			b.WriteString(" classdef")
		}
	case KindPort:
		b.WriteString(" in=" + strconv.FormatBool(e.Input))
		b.WriteString(" out=" + strconv.FormatBool(e.Output))
		b.WriteString(" multi=" + strconv.FormatBool(e.Multiport))
	case KindAttribute:
		b.WriteString(" value=" + e.Value)
	case KindLocation:
		b.WriteString(" at=" + FormatPoint(e.X, e.Y))
		if e.RelativeTo != "" {
			b.WriteString(" rel=" + e.RelativeTo + "/" + e.RelativeToKind)
		}
	}
	if len(e.linked) > 0 {
		var peers []string
		for _, p := range e.linked {
			pn, err := p.NameRelativeTo(root)
			if err != nil {
				pn = p.FullName()
			}
			peers = append(peers, pn)
		}
		sort.Strings(peers)
		b.WriteString(" links=" + strings.Join(peers, ","))
	}
	return b.String()
}

// Fingerprint hashes Describe(root) with BLAKE3.
func Fingerprint(root *Element) string {
	h := blake3.New(32, nil)
	for _, line := range Describe(root) {
		h.Write([]byte(line))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
