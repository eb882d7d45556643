package main

import (
	"log"
	"net/http"
	"os"

	"github.com/cpharmston/fieldlevel/internal/server"
	admintypes "github.com/cpharmston/fieldlevel/modules/admin/domain/types"
	adminservices "github.com/cpharmston/fieldlevel/modules/admin/services"
	iamtypes "github.com/cpharmston/fieldlevel/modules/iam/domain/types"
	"github.com/cpharmston/fieldlevel/modules/iam/infrastructure/memory"
	"github.com/cpharmston/fieldlevel/pkg/authz"
	"github.com/cpharmston/fieldlevel/pkg/gate"
)

func main() {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	registry, err := buildRegistry()
	if err != nil {
		log.Fatal(err)
	}

	opts := server.HandlerOptions{Registry: registry}

	// IAM_BACKEND=postgres leaves the stores nil so the handler builds its
	// own pgx pool from the environment DSN.
	if os.Getenv("IAM_BACKEND") != "postgres" {
		store := demoIAMStore()
		opts.PrincipalStore = store
		opts.CapabilityStore = store
	}

	if modelPath := os.Getenv("AUTHZ_MODEL_PATH"); modelPath != "" {
		mode, err := authz.ModeFromEnv()
		if err != nil {
			log.Fatal(err)
		}
		a, err := authz.NewAuthorizer(modelPath, os.Getenv("AUTHZ_POLICY_PATH"), mode)
		if err != nil {
			log.Fatal(err)
		}
		opts.CapabilityStore = a
	}

	h, err := server.NewHandlerWithOptions(opts)
	if err != nil {
		log.Fatal(err)
	}

	log.Printf("listening on %s", addr)
	if err := http.ListenAndServe(addr, h); err != nil {
		log.Fatal(err)
	}
}

func buildRegistry() (*adminservices.Registry, error) {
	registry := adminservices.NewRegistry()

	article := adminservices.ModelAdmin{
		Model: admintypes.ModelDescriptor{
			Name: "article",
			Fields: []admintypes.Field{
				{Name: "title", Label: "Title", Kind: "text", Required: true},
				{Name: "slug", Label: "Slug", Kind: "text", Required: true},
				{Name: "body", Label: "Body", Kind: "text"},
				{Name: "approved", Label: "Approved", Kind: "bool", HasDefault: true},
				{Name: "status", Label: "Status", Kind: "text", HasDefault: true},
			},
			Fieldsets: []admintypes.Fieldset{
				{Label: "Content", Fields: []string{"title", "slug", "body"}},
				{Label: "Workflow", Fields: []string{"approved", "status"}},
			},
			Inlines: []admintypes.Inline{
				{Name: "MetaTagInline", Model: "metatag"},
				{Name: "CommentInline", Model: "comment"},
			},
		},
	}

	if path := os.Getenv("FIELD_POLICY_PATH"); path != "" {
		policy, err := adminservices.LoadPolicy(path)
		if err != nil {
			return nil, err
		}
		g, err := policy.CompileGate(article.Model.Name)
		if err != nil {
			return nil, err
		}
		article.Gate = g
	} else {
		article.Gate = gate.Gate{
			FieldRule: gate.AllFieldRules(
				gate.SuperuserOnly("status"),
				gate.RequireCapabilityOnObject("approved", authz.CapabilityApprove),
			),
			InlineRule: gate.InlineRequireCapability("MetaTagInline", authz.CapabilityEditMeta),
		}
	}

	if err := registry.Register(article); err != nil {
		return nil, err
	}
	return registry, nil
}

func demoIAMStore() *memory.Store {
	store := memory.NewStore()
	store.AddPrincipal(iamtypes.PrincipalRecord{ID: "root", Email: "root@example.com", Superuser: true})
	store.AddPrincipal(iamtypes.PrincipalRecord{ID: "editor", Email: "editor@example.com"}, authz.CapabilityApprove)
	store.AddPrincipal(iamtypes.PrincipalRecord{ID: "meta-editor", Email: "meta@example.com"}, authz.CapabilityEditMeta)
	store.AddPrincipal(iamtypes.PrincipalRecord{ID: "viewer", Email: "viewer@example.com"})
	return store
}
