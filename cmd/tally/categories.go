package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/parthgeek/tally/internal/model"
)

func categoriesCmd() *cobra.Command {
	var industry string

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List the category taxonomy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			registry, err := loadRegistry(ctx, store)
			if err != nil {
				return err
			}

			cats := registry.All()
			if industry != "" {
				cats = registry.ListByIndustry(industry)
			}

			parents := make([]model.Category, 0)
			children := make(map[int][]model.Category)
			for _, c := range cats {
				if c.ParentID == nil {
					parents = append(parents, c)
					continue
				}
				children[*c.ParentID] = append(children[*c.ParentID], c)
			}
			sort.Slice(parents, func(i, j int) bool { return parents[i].ID < parents[j].ID })

			for _, p := range parents {
				fmt.Printf("%s (%s)\n", p.Name, p.Type)
				kids := children[p.ID]
				sort.Slice(kids, func(i, j int) bool { return kids[i].ID < kids[j].ID })
				for _, k := range kids {
					line := fmt.Sprintf("  %-30s %s", k.Slug, k.Name)
					if len(k.Industries) > 0 && k.Industries[0] != model.IndustryAll {
						line += fmt.Sprintf("  [%s]", strings.Join(k.Industries, ", "))
					}
					fmt.Println(line)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&industry, "industry", "", "only show categories applicable to this industry")

	return cmd
}
