/*
 * Copyright (c) 2026 by SEUB66.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package domain

import (
	"sort"
	"strings"
)

// Slot names one image position in the Assets document.
type Slot string

// Branding slots.
const (
	SlotVan    Slot = "van"
	SlotSquare Slot = "square"
	SlotBanner Slot = "banner"
	SlotTitle  Slot = "title"
)

// Character reference slots.
const (
	SlotSeb   Slot = "seb"
	SlotNadia Slot = "nadia"
	SlotEevee Slot = "eevee"
)

// SlotKind groups slots by purpose.
type SlotKind string

const (
	KindBranding  SlotKind = "branding"
	KindReference SlotKind = "reference"
)

var slotKinds = map[Slot]SlotKind{
	SlotVan:    KindBranding,
	SlotSquare: KindBranding,
	SlotBanner: KindBranding,
	SlotTitle:  KindBranding,
	SlotSeb:    KindReference,
	SlotNadia:  KindReference,
	SlotEevee:  KindReference,
}

// ParseSlot normalizes s and reports whether it names a known slot.
func ParseSlot(s string) (Slot, bool) {
	slot := Slot(strings.ToLower(strings.TrimSpace(s)))
	_, ok := slotKinds[slot]
	return slot, ok
}

// Kind returns the slot group, or "" for unknown slots.
func (s Slot) Kind() SlotKind { return slotKinds[s] }

// Slots returns every known slot of the given kind in a stable order.
// An empty kind returns all slots.
func Slots(kind SlotKind) []Slot {
	out := make([]Slot, 0, len(slotKinds))
	for s, k := range slotKinds {
		if kind == "" || k == kind {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ReferenceSlotFor maps a character to its reference slot by name.
func ReferenceSlotFor(c Character) (Slot, bool) {
	slot, ok := ParseSlot(c.Name)
	if !ok || slot.Kind() != KindReference {
		return "", false
	}
	return slot, true
}

// Assets maps slots to data-URL images. A missing slot is valid and renders as a placeholder.
type Assets map[Slot]string

// Clone returns an independent copy.
func (a Assets) Clone() Assets {
	out := make(Assets, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Filter returns the slots of one kind.
func (a Assets) Filter(kind SlotKind) Assets {
	out := Assets{}
	for k, v := range a {
		if k.Kind() == kind {
			out[k] = v
		}
	}
	return out
}
