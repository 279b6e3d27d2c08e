package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"saiql/internal/harness"
	"saiql/internal/ir"
	"saiql/internal/report"
	"saiql/internal/translate"

	_ "saiql/internal/adapter/hana"
	_ "saiql/internal/adapter/mssql"
	_ "saiql/internal/adapter/mysql"
	_ "saiql/internal/adapter/oracle"
	_ "saiql/internal/adapter/postgres"
	_ "saiql/internal/adapter/sqlite"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "saiql",
		Short: "Cross-dialect schema migration harness",
	}

	var runConfigPath string
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a migration run and write the evidence bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := harness.LoadConfig(runConfigPath)
			if err != nil {
				return err
			}
			runner, err := harness.NewRunner(cfg)
			if err != nil {
				return err
			}
			res, err := runner.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("run failed: %w", err)
			}
			fmt.Printf("run %s finished: %s\n", res.RunID, res.Status)
			fmt.Printf("bundle: %s\n", res.BundleDir)
			if res.Status != harness.StatusPass {
				return fmt.Errorf("run finished with status %s", res.Status)
			}
			return nil
		},
	}
	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "saiql.toml", "Run configuration file (TOML)")

	var anaSource string
	var anaTarget string
	var anaObject string
	var anaName string
	var anaLanguage string
	analyzeCmd := &cobra.Command{
		Use:   "analyze <definition.sql> [more.sql...]",
		Short: "Classify object definitions without emitting any SQL",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := translateFiles(ir.ModeAnalyze, anaSource, anaTarget, anaObject, anaName, anaLanguage, args)
			if err != nil {
				return err
			}
			gen := report.Generator{
				Mode:   ir.ModeAnalyze,
				Source: ir.Dialect(anaSource),
				Target: ir.Dialect(targetOrSource(anaTarget, anaSource)),
			}
			fmt.Print(gen.Text(results))
			return nil
		},
	}
	analyzeCmd.Flags().StringVar(&anaSource, "source", "", "Source dialect of the definitions")
	analyzeCmd.Flags().StringVarP(&anaTarget, "to", "t", "", "Target dialect (defaults to the source)")
	analyzeCmd.Flags().StringVar(&anaObject, "object", "view", "Object kind: view, function, procedure, or package")
	analyzeCmd.Flags().StringVar(&anaName, "name", "", "Object name (defaults to the file name)")
	analyzeCmd.Flags().StringVar(&anaLanguage, "language", "", "Routine language (defaults per source dialect)")
	_ = analyzeCmd.MarkFlagRequired("source")

	var repMode string
	var repSource string
	var repTarget string
	var repObject string
	var repName string
	var repLanguage string
	var repJSONFile string
	var repDDLDir string
	reportCmd := &cobra.Command{
		Use:   "report <definition.sql> [more.sql...]",
		Short: "Translate or stub definitions and produce the full report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := ir.TranslateMode(repMode)
			results, err := translateFiles(mode, repSource, repTarget, repObject, repName, repLanguage, args)
			if err != nil {
				return err
			}
			gen := report.Generator{
				Mode:   mode,
				Source: ir.Dialect(repSource),
				Target: ir.Dialect(targetOrSource(repTarget, repSource)),
			}
			if repDDLDir != "" {
				if err := writeDDL(repDDLDir, results); err != nil {
					return err
				}
			}
			if repJSONFile != "" {
				data, err := gen.JSON(results)
				if err != nil {
					return err
				}
				if err := os.WriteFile(repJSONFile, append(data, '\n'), 0644); err != nil {
					return fmt.Errorf("failed to write report: %w", err)
				}
			}
			fmt.Print(gen.Text(results))
			return nil
		},
	}
	reportCmd.Flags().StringVarP(&repMode, "mode", "m", "analyze", "Translator mode: analyze, stub, or subset_translate")
	reportCmd.Flags().StringVar(&repSource, "source", "", "Source dialect of the definitions")
	reportCmd.Flags().StringVarP(&repTarget, "to", "t", "", "Target dialect (defaults to the source)")
	reportCmd.Flags().StringVar(&repObject, "object", "view", "Object kind: view, function, procedure, or package")
	reportCmd.Flags().StringVar(&repName, "name", "", "Object name (defaults to the file name)")
	reportCmd.Flags().StringVar(&repLanguage, "language", "", "Routine language (defaults per source dialect)")
	reportCmd.Flags().StringVarP(&repJSONFile, "json", "j", "", "Also write the machine report to this file")
	reportCmd.Flags().StringVarP(&repDDLDir, "ddl-dir", "o", "", "Write emitted SQL into this directory")
	_ = reportCmd.MarkFlagRequired("source")

	rootCmd.AddCommand(runCmd, analyzeCmd, reportCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func targetOrSource(target, source string) string {
	if target == "" {
		return source
	}
	return target
}

// translateFiles runs each definition file through the translator as one
// object of the requested kind.
func translateFiles(mode ir.TranslateMode, source, target, object, name, language string, paths []string) ([]ir.TranslationResult, error) {
	if !ir.IsValidDialect(source) {
		return nil, fmt.Errorf("unsupported source dialect: %s", source)
	}
	target = targetOrSource(target, source)
	if !ir.IsValidDialect(target) {
		return nil, fmt.Errorf("unsupported target dialect: %s", target)
	}
	if language == "" {
		language = "sql"
		if ir.Dialect(source) == ir.DialectOracle {
			language = "plsql"
		}
	}

	tr, err := translate.New(mode, ir.Dialect(source), ir.Dialect(target), nil)
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read definition: %w", err)
		}
		objName := name
		if objName == "" || len(paths) > 1 {
			base := filepath.Base(path)
			objName = strings.TrimSuffix(base, filepath.Ext(base))
		}
		def := string(data)

		switch object {
		case "view":
			tr.View(&ir.View{Name: objName, Definition: def})
		case "function":
			tr.Routine(&ir.Routine{Name: objName, Kind: ir.RoutineFunction, Language: language, Body: def, Definition: def})
		case "procedure":
			tr.Routine(&ir.Routine{Name: objName, Kind: ir.RoutineProcedure, Language: language, Body: def, Definition: def})
		case "package":
			tr.Package(objName, def)
		default:
			return nil, fmt.Errorf("unsupported object kind: %s", object)
		}
	}
	return tr.Results(), nil
}

func writeDDL(dir string, results []ir.TranslationResult) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create ddl dir: %w", err)
	}
	for i := range results {
		res := &results[i]
		if !res.HasSQL() {
			continue
		}
		file := fmt.Sprintf("%s_%s.sql", strings.ToUpper(string(res.ObjectType)), res.ObjectName)
		if err := os.WriteFile(filepath.Join(dir, file), []byte(*res.SQL), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", file, err)
		}
	}
	return nil
}
