package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ThresholdNode is one node of the recursive threshold tree stored on an
// equipment document. A node is either a leaf carrying min/max bounds or an
// interior node with named children ("Supply" -> {"Temp" -> leaf}).
type ThresholdNode struct {
	IsLeaf   bool                      `json:"is_leaf"`
	Min      *float64                  `json:"min,omitempty"`
	Max      *float64                  `json:"max,omitempty"`
	Children map[string]*ThresholdNode `json:"children,omitempty"`
}

// UnmarshalJSON accepts both the explicit tagged form and the raw nested
// form the configuration store holds, where any object with a "min" or
// "max" key is a leaf and everything else is a subtree.
func (n *ThresholdNode) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("threshold node: %w", err)
	}
	if _, hasMin := raw["min"]; hasMin {
		return n.unmarshalLeaf(raw)
	}
	if _, hasMax := raw["max"]; hasMax {
		return n.unmarshalLeaf(raw)
	}

	n.IsLeaf = false
	n.Children = make(map[string]*ThresholdNode, len(raw))
	for key, val := range raw {
		if key == "is_leaf" || key == "children" {
			// explicit tagged form
			continue
		}
		child := &ThresholdNode{}
		if err := json.Unmarshal(val, child); err != nil {
			return fmt.Errorf("threshold subtree %q: %w", key, err)
		}
		n.Children[key] = child
	}
	if childrenRaw, ok := raw["children"]; ok {
		if err := json.Unmarshal(childrenRaw, &n.Children); err != nil {
			return fmt.Errorf("threshold children: %w", err)
		}
	}
	return nil
}

func (n *ThresholdNode) unmarshalLeaf(raw map[string]json.RawMessage) error {
	n.IsLeaf = true
	if minRaw, ok := raw["min"]; ok {
		if err := json.Unmarshal(minRaw, &n.Min); err != nil {
			return fmt.Errorf("threshold leaf min: %w", err)
		}
	}
	if maxRaw, ok := raw["max"]; ok {
		if err := json.Unmarshal(maxRaw, &n.Max); err != nil {
			return fmt.Errorf("threshold leaf max: %w", err)
		}
	}
	return nil
}

// Leaves walks the tree depth-first and returns every leaf keyed by its
// dotted path ("Supply.Temp").
func (n *ThresholdNode) Leaves() map[string]*ThresholdNode {
	out := make(map[string]*ThresholdNode)
	n.collect("", out)
	return out
}

func (n *ThresholdNode) collect(prefix string, out map[string]*ThresholdNode) {
	if n == nil {
		return
	}
	if n.IsLeaf {
		if prefix != "" {
			out[prefix] = n
		}
		return
	}
	for key, child := range n.Children {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		child.collect(path, out)
	}
}

// ThresholdSetting is one monitored metric bound for one piece of
// equipment. Read-mostly; refreshed from the configuration store on each
// monitor cycle.
type ThresholdSetting struct {
	ID          string    `json:"id"`
	EquipmentID string    `json:"equipment_id"`
	MetricPath  string    `json:"metric_path"` // dotted path into the threshold tree
	MetricName  string    `json:"metric_name"` // human metric name, e.g. "SupplyTemp"
	Min         *float64  `json:"min,omitempty"`
	Max         *float64  `json:"max,omitempty"`
	Enabled     bool      `json:"enabled"`
	LocationID  string    `json:"location_id,omitempty"` // lookup hint
	System      string    `json:"system,omitempty"`      // lookup hint
	UpdatedAt   time.Time `json:"updated_at"`
}
