package persistence

import (
	"fmt"
	"sort"

	"github.com/cadencehq/cadence/pkg/models"
)

// PageInMemory filters, sorts and paginates a full playbook slice. Drivers
// without native query support (file, redis) delegate to it.
func PageInMemory(all []*models.Playbook, opts ListPlaybooksOptions) (*PlaybookListResult, error) {
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 20
	}

	if opts.Offset < 0 {
		opts.Offset = 0
	}

	if opts.SortBy == "" {
		opts.SortBy = "created_at"
	}

	if opts.SortOrder == "" {
		opts.SortOrder = "desc"
	}

	allowedSorts := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"name":       true,
	}
	if !allowedSorts[opts.SortBy] {
		return nil, fmt.Errorf("invalid sort field: %s", opts.SortBy)
	}

	filtered := make([]*models.Playbook, 0, len(all))

	for _, playbook := range all {
		if opts.Owner != "" && playbook.Owner != opts.Owner {
			continue
		}

		if opts.Status != nil && playbook.Status != *opts.Status {
			continue
		}

		filtered = append(filtered, playbook)
	}

	sortPlaybooks(filtered, opts.SortBy, opts.SortOrder)

	totalCount := int64(len(filtered))

	startIdx := opts.Offset
	if startIdx >= len(filtered) {
		return &PlaybookListResult{
			Playbooks:   make([]*models.Playbook, 0),
			TotalCount:  totalCount,
			HasNextPage: false,
		}, nil
	}

	endIdx := opts.Offset + opts.Limit
	if endIdx > len(filtered) {
		endIdx = len(filtered)
	}

	return &PlaybookListResult{
		Playbooks:   filtered[startIdx:endIdx],
		TotalCount:  totalCount,
		HasNextPage: endIdx < len(filtered),
	}, nil
}

func sortPlaybooks(playbooks []*models.Playbook, sortBy, sortOrder string) {
	sort.Slice(playbooks, func(i, j int) bool {
		var less bool

		switch sortBy {
		case "updated_at":
			less = playbooks[i].UpdatedAt.Before(playbooks[j].UpdatedAt)
		case "name":
			less = playbooks[i].Name < playbooks[j].Name
		default:
			less = playbooks[i].CreatedAt.Before(playbooks[j].CreatedAt)
		}

		if sortOrder == "desc" {
			return !less
		}

		return less
	})
}
