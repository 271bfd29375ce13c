package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"crm_search_backend/internal/entities"
	"crm_search_backend/internal/facets"
	facetservice "crm_search_backend/internal/facets/service"
	"crm_search_backend/internal/filters"
	"crm_search_backend/internal/search/engine"
	"crm_search_backend/platform/logger"
	"crm_search_backend/platform/phone"

	"github.com/spf13/cobra"
)

// --- search ---

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Rank leads and clients for a query",
	Long: `Rank leads and clients the way the global search box does.

Examples:
  searchctl search --snapshot pool.json "jane"
  searchctl search --snapshot pool.json --limit 5 "+31 6 1234 5678"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")
		region, _ := cmd.Flags().GetString("region")

		store, err := loadStore(cmd)
		if err != nil {
			return err
		}

		query := strings.Join(args, " ")
		eng := engine.NewEngine(phone.NewParser(region), time.Now)
		results := eng.Search(store.Snapshot(), query, limit)

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}
		if len(results) == 0 {
			fmt.Fprintln(out, dimColor.Sprint("no results"))
			return nil
		}
		for i, r := range results {
			printResult(out, i+1, r, query)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().Int("limit", engine.DefaultMaxResults, "maximum number of results")
	searchCmd.Flags().Bool("json", false, "print results as JSON")
}

// --- facets ---

var facetsCmd = &cobra.Command{
	Use:   "facets <field>...",
	Short: "Print the distinct values of filter fields",
	Long: `Print normalized facet lists for data-driven filter fields.

Examples:
  searchctl facets --snapshot pool.json country city
  searchctl facets --snapshot pool.json city --where country=Spain --entity client`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		search, _ := cmd.Flags().GetString("search")
		entity, _ := cmd.Flags().GetString("entity")
		where, _ := cmd.Flags().GetStringArray("where")

		conditions, err := parseWhere(where)
		if err != nil {
			return err
		}
		catalog, err := filters.DefaultCatalog()
		if err != nil {
			return err
		}
		store, err := loadStore(cmd)
		if err != nil {
			return err
		}

		svc := facetservice.New(facets.NewStoreSource(store), catalog, nil, store.Version, 0, logger.NewNop())
		watcher := facets.NewWatcher(svc, nil)
		<-watcher.Load(cmd.Context(), facets.Request{
			Fields:  args,
			Filters: conditions,
			Search:  search,
			Entity:  entities.Kind(entity),
		})

		state := watcher.State()
		if state.Error != "" {
			return fmt.Errorf("loading facets: %s", state.Error)
		}

		out := cmd.OutOrStdout()
		for _, field := range args {
			values := state.Facets[field]
			headerColor.Fprintf(out, "%s (%d)\n", field, len(values))
			for _, v := range values {
				fmt.Fprintf(out, "  %s\n", v)
			}
		}
		return nil
	},
}

func init() {
	facetsCmd.Flags().String("search", "", "only records matching this search text")
	facetsCmd.Flags().String("entity", "", "lead (default) or client")
	facetsCmd.Flags().StringArray("where", nil, "equality condition field=value (repeatable)")
}

func parseWhere(items []string) ([]filters.Condition, error) {
	conditions := make([]filters.Condition, 0, len(items))
	for _, item := range items {
		field, value, ok := strings.Cut(item, "=")
		if !ok || strings.TrimSpace(field) == "" {
			return nil, fmt.Errorf("invalid --where %q, expected field=value", item)
		}
		conditions = append(conditions, filters.Condition{
			Field: strings.TrimSpace(field),
			Op:    filters.OpEquals,
			Value: value,
		})
	}
	return conditions, nil
}

// --- catalog ---

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the filterable fields and their operators",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := filters.DefaultCatalog()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, f := range catalog.Filterable() {
			source := ""
			switch {
			case f.UsesFacets():
				source = dimColor.Sprint(" (options from data)")
			case len(f.Options) > 0:
				values := make([]string, len(f.Options))
				for i, o := range f.Options {
					values[i] = o.Value
				}
				sort.Strings(values)
				source = dimColor.Sprintf(" [%s]", strings.Join(values, ", "))
			}
			fmt.Fprintf(out, "%s %s: %s%s\n", headerColor.Sprint(f.Key), f.Type, strings.Join(f.Operators, ", "), source)
		}
		return nil
	},
}
