package cmd

import (
	"runtime"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gmlstats/internal/report"
	"github.com/dbsmedya/gmlstats/internal/schema"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display version information, the supported CityGML versions and the built-in schema modules.`,
	Run:   runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) {
	modules := schema.NewClassifier().Modules()

	cmd.Printf("gmlstats version %s (%s)\n", Version, Commit)
	cmd.Printf("  CityGML versions: %s\n", strings.Join(cityGMLVersions(modules), ", "))
	cmd.Printf("  Built-in schema modules: %d\n", len(modules))
	cmd.Printf("  Report formats: %s, %s\n", report.FormatJSON, report.FormatYAML)
	cmd.Printf("  Built with %s for %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// cityGMLVersions returns the distinct CityGML versions of modules, sorted.
func cityGMLVersions(modules []*schema.Module) []string {
	seen := make(map[string]struct{})
	var versions []string
	for _, m := range modules {
		if m.Version == "" {
			continue
		}
		if _, ok := seen[m.Version]; !ok {
			seen[m.Version] = struct{}{}
			versions = append(versions, m.Version)
		}
	}
	sort.Strings(versions)
	return versions
}
