// Command validate checks the game configuration files of a directory
// (../configs by default). For every JSON or YAML file it checks:
//   - the file decodes and passes engine validation
//   - each scoring rule can actually fire with the drawable tiles
//   - configuration names are unique across the directory
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/tiletris/game/engine"
	"github.com/wricardo/mcp-training/tiletris/game/feature"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Name   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single configuration file
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	config, err := engine.ParseGameConfig(data, filepath.Ext(filePath))
	if err != nil {
		result.fail("Invalid configuration: %v", err)
		return result
	}
	result.Name = config.Name

	catalog, err := config.Catalog()
	if err != nil {
		result.fail("Invalid tile weights: %v", err)
		return result
	}

	coverage := drawableCoverage(catalog)
	if config.Scoring.CityMultiplier > 0 && coverage.cities == 0 {
		result.fail("city_multiplier is set but no drawable tile carries a city edge")
	}
	if config.Scoring.RoadMultiplier > 0 && coverage.roads == 0 {
		result.fail("road_multiplier is set but no drawable tile carries a road edge")
	}
	if config.Scoring.SpecialBonus > 0 && coverage.specials == 0 && coverage.bonus == 0 {
		result.fail("special_bonus is set but no drawable tile is a monastery or shielded")
	}

	if result.Valid {
		result.info("Name: %s", config.Name)
		result.info("Board: %dx%d, spawn column %d", config.BoardWidth, config.BoardHeight, config.Spawn())
		result.info("Timing: tick %dms, resolve delay %dms", config.TickIntervalMs, config.ResolveDelayMs)
		result.info("Drawable kinds: %d of %d", coverage.drawable, len(catalog.Kinds()))
		result.info("Scoring: city x%d, road x%d, special +%d",
			config.Scoring.CityMultiplier, config.Scoring.RoadMultiplier, config.Scoring.SpecialBonus)
	}

	return result
}

type coverage struct {
	drawable int
	cities   int
	roads    int
	specials int
	bonus    int
}

// drawableCoverage counts the tile kinds with a non-zero weight that carry
// each scoring feature
func drawableCoverage(catalog *engine.Catalog) coverage {
	var c coverage
	for _, def := range catalog.Definitions() {
		if def.Weight <= 0 {
			continue
		}
		c.drawable++
		if hasEdge(def.Edges, feature.City) {
			c.cities++
		}
		if hasEdge(def.Edges, feature.Road) {
			c.roads++
		}
		if def.Surroundable {
			c.specials++
		}
		if def.Bonus {
			c.bonus++
		}
	}
	return c
}

func hasEdge(edges engine.Edges, kind feature.Kind) bool {
	for _, e := range edges {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

// configFiles lists the configuration files of dir in name order
func configFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !engine.IsConfigFile(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// validateDir validates every configuration of dir and flags configurations
// that share a name
func validateDir(dir string) ([]ValidationResult, error) {
	files, err := configFiles(dir)
	if err != nil {
		return nil, err
	}

	results := make([]ValidationResult, 0, len(files))
	seen := make(map[string]string)
	for _, file := range files {
		result := validateConfig(file)
		if result.Name != "" {
			key := strings.ToLower(result.Name)
			if other, ok := seen[key]; ok {
				result.fail("Duplicate name %q, also used by %s", result.Name, other)
			} else {
				seen[key] = result.File
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// main validates ../configs, or the directory given as the first argument,
// printing a concise report and exiting with non-zero status if any file is
// invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	results, err := validateDir(configDir)
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}

	allValid := true
	for _, result := range results {
		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
