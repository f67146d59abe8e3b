package bundle

import (
	"sort"

	"github.com/wolfeidau/stackup/internal/vendor"
)

// VendorChunk sums the third-party inputs that resolve to one vendor name
type VendorChunk struct {
	Name    string `json:"name"`
	Bytes   int    `json:"bytes"`
	Modules int    `json:"modules"`
}

// VendorReport groups the node_modules inputs of a build by vendor name,
// largest first. First-party inputs are left out.
func VendorReport(meta *Metadata) []VendorChunk {
	if meta == nil {
		return nil
	}

	chunks := map[string]*VendorChunk{}
	for inputPath, info := range meta.Inputs {
		name, err := vendor.Name(inputPath)
		if err != nil {
			continue
		}
		chunk, ok := chunks[name]
		if !ok {
			chunk = &VendorChunk{Name: name}
			chunks[name] = chunk
		}
		chunk.Bytes += info.Bytes
		chunk.Modules++
	}

	report := make([]VendorChunk, 0, len(chunks))
	for _, chunk := range chunks {
		report = append(report, *chunk)
	}
	sort.Slice(report, func(i, j int) bool {
		if report[i].Bytes != report[j].Bytes {
			return report[i].Bytes > report[j].Bytes
		}
		return report[i].Name < report[j].Name
	})

	return report
}
