package catalog

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Skill identifies a player skill. Values double as sub-keys for list modifiers.
type Skill int

const (
	Attack Skill = iota
	Strength
	Defence
	Hitpoints
	Ranged
	Magic
	Prayer
	Slayer
	NumSkills
)

var skillNames = [...]string{"attack", "strength", "defence", "hitpoints", "ranged", "magic", "prayer", "slayer"}

// String returns the lowercase skill name.
func (s Skill) String() string {
	if s < 0 || s >= NumSkills {
		return fmt.Sprintf("skill(%d)", int(s))
	}
	return skillNames[s]
}

// ParseSkill converts a skill name to a Skill.
func ParseSkill(name string) (Skill, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range skillNames {
		if n == name {
			return Skill(i), true
		}
	}
	return 0, false
}

// MarshalYAML writes the skill name.
func (s Skill) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// UnmarshalYAML reads a skill name.
func (s *Skill) UnmarshalYAML(node *yaml.Node) error {
	skill, ok := ParseSkill(node.Value)
	if !ok {
		return fmt.Errorf("unknown skill %q", node.Value)
	}
	*s = skill
	return nil
}

// AttackType is the combat triangle class of an attack.
type AttackType int

const (
	Melee AttackType = iota
	RangedType
	MagicType
)

var attackTypeNames = [...]string{"melee", "ranged", "magic"}

// String returns the lowercase attack type name.
func (a AttackType) String() string {
	if a < 0 || int(a) >= len(attackTypeNames) {
		return fmt.Sprintf("attacktype(%d)", int(a))
	}
	return attackTypeNames[a]
}

// ParseAttackType converts a name to an AttackType.
func ParseAttackType(name string) (AttackType, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range attackTypeNames {
		if n == name {
			return AttackType(i), true
		}
	}
	return 0, false
}

// MarshalYAML writes the attack type name.
func (a AttackType) MarshalYAML() (interface{}, error) {
	return a.String(), nil
}

// UnmarshalYAML reads an attack type name.
func (a *AttackType) UnmarshalYAML(node *yaml.Node) error {
	t, ok := ParseAttackType(node.Value)
	if !ok {
		return fmt.Errorf("unknown attack type %q", node.Value)
	}
	*a = t
	return nil
}

// EquipmentSlot is where an item is worn.
type EquipmentSlot int

const (
	SlotNone EquipmentSlot = iota
	SlotHelmet
	SlotPlatebody
	SlotPlatelegs
	SlotBoots
	SlotWeapon
	SlotShield
	SlotAmulet
	SlotRing
	SlotGloves
	SlotQuiver
	SlotCape
	SlotPassive
	NumSlots
)

var slotNames = [...]string{"none", "helmet", "platebody", "platelegs", "boots", "weapon", "shield", "amulet", "ring", "gloves", "quiver", "cape", "passive"}

// String returns the slot name.
func (s EquipmentSlot) String() string {
	if s < 0 || s >= NumSlots {
		return fmt.Sprintf("slot(%d)", int(s))
	}
	return slotNames[s]
}

// StringToEquipmentSlot converts a slot name to an EquipmentSlot.
func StringToEquipmentSlot(name string) EquipmentSlot {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range slotNames {
		if n == name {
			return EquipmentSlot(i)
		}
	}
	return SlotNone
}

// MarshalYAML writes the slot name.
func (s EquipmentSlot) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// UnmarshalYAML reads a slot name. Unknown names map to SlotNone.
func (s *EquipmentSlot) UnmarshalYAML(node *yaml.Node) error {
	*s = StringToEquipmentSlot(node.Value)
	return nil
}

// Slots lists every wearable slot in display order.
func Slots() []EquipmentSlot {
	slots := make([]EquipmentSlot, 0, NumSlots-1)
	for s := SlotHelmet; s < NumSlots; s++ {
		slots = append(slots, s)
	}
	return slots
}
