package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	adminservices "github.com/cpharmston/fieldlevel/modules/admin/services"
)

func main() {
	fs := flag.NewFlagSet("policytool", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var file string
	fs.StringVar(&file, "file", "", "field policy yaml to validate")
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	if file == "" {
		fatalf("missing --file")
	}

	policy, err := adminservices.LoadPolicy(file)
	if err != nil {
		fatalf("invalid policy: %v", err)
	}

	models := make([]string, 0, len(policy.Models))
	for name := range policy.Models {
		models = append(models, name)
	}
	sort.Strings(models)

	for _, model := range models {
		// Compiling catches CEL expression errors parse alone would miss.
		if _, err := policy.CompileGate(model); err != nil {
			fatalf("model %s: %v", model, err)
		}
		mp := policy.Models[model]
		fmt.Printf("%s: %d field policies, %d inline policies\n", model, len(mp.Fields), len(mp.Inlines))
	}
	fmt.Println("ok")
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
