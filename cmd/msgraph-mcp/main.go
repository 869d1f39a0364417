package main

import (
	"context"
	"log"
	"os"

	flags "github.com/jessevdk/go-flags"
	"github.com/viant/mcp-protocol/schema"
	mcpsrv "github.com/viant/mcp/server"
	"github.com/viant/scy"
	_ "github.com/viant/scy/kms/blowfish"

	"github.com/XiansAiPlatform/mcp-msgraph/mcp"
)

// Options defines CLI flags for the MSGraph MCP server.
type Options struct {
	HTTPAddr     string `short:"a" long:"addr" default:":7788" description:"HTTP listen address"`
	AuthMode     string `long:"auth-mode" description:"client_credentials, certificate, interactive or client_provided_token"`
	TenantID     string `long:"tenant-id" description:"Tenant ID, or 'common'/'organizations'"`
	ClientID     string `long:"client-id" description:"Azure AD application (client) ID"`
	ClientSecret string `long:"client-secret" description:"Application client secret (client_credentials mode)"`
	CertPath     string `long:"cert-path" description:"Client certificate file, PEM or PFX (certificate mode)"`
	CertPassword string `long:"cert-password" description:"Client certificate password"`
	RedirectURI  string `long:"redirect-uri" description:"Browser callback for interactive sign-in"`
	AccessToken  string `long:"access-token" description:"Initial bearer for client_provided_token mode"`
	AzureRef     string `long:"azure-ref" description:"scy EncodedResource for Azure cred (e.g., gcp://...|blowfish://default)"`
	UseData      bool   `long:"use-data" description:"Return tool results in the data field instead of text"`
	SkipVerify   bool   `long:"skip-verify" description:"Skip the startup token acquisition check"`
}

func main() {
	var opts Options
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		os.Exit(2)
	}
	fallback(&opts.AuthMode, "MSGRAPH_AUTH_MODE")
	fallback(&opts.TenantID, "MSGRAPH_TENANT_ID")
	fallback(&opts.ClientID, "MSGRAPH_CLIENT_ID")
	fallback(&opts.ClientSecret, "MSGRAPH_CLIENT_SECRET")
	fallback(&opts.CertPath, "MSGRAPH_CERT_PATH")
	fallback(&opts.CertPassword, "MSGRAPH_CERT_PASSWORD")
	fallback(&opts.RedirectURI, "MSGRAPH_REDIRECT_URI")
	fallback(&opts.AccessToken, "MSGRAPH_ACCESS_TOKEN")
	fallback(&opts.AzureRef, "MSGRAPH_AZURE_REF")

	svc, err := mcp.NewService(&mcp.Config{
		AuthMode:            opts.AuthMode,
		TenantID:            opts.TenantID,
		ClientID:            opts.ClientID,
		ClientSecret:        opts.ClientSecret,
		CertificatePath:     opts.CertPath,
		CertificatePassword: opts.CertPassword,
		RedirectURI:         opts.RedirectURI,
		AccessToken:         opts.AccessToken,
		UseData:             opts.UseData,
		AzureRef:            scy.EncodedResource(opts.AzureRef),
	})
	if err != nil {
		log.Fatalf("authentication setup failed: %v", err)
	}
	if !opts.SkipVerify {
		if err := svc.Manager().Verify(context.Background()); err != nil {
			log.Fatalf("credential verification failed: %v", err)
		}
	}

	options := []mcpsrv.Option{
		mcpsrv.WithImplementation(schema.Implementation{Name: "mcp-msgraph", Version: "0.1.0"}),
		mcpsrv.WithNewHandler(mcp.NewHandler(svc)),
		mcpsrv.WithEndpointAddress(opts.HTTPAddr),
		mcpsrv.WithRootRedirect(true),
		mcpsrv.WithStreamableURI("/mcp"),
		mcpsrv.WithCustomHTTPHandler("/msgraph/auth/status", svc.StatusHandler()),
		mcpsrv.WithCustomHTTPHandler("/msgraph/auth/pending", svc.PendingListHandler()),
		mcpsrv.WithCustomHTTPHandler("/msgraph/auth/pending/clear", svc.PendingClearHandler()),
	}
	server, err := mcpsrv.New(options...)
	if err != nil {
		log.Fatal(err)
	}
	server.UseStreamableHTTP(true)
	if err := server.HTTP(context.Background(), opts.HTTPAddr).ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}

func fallback(target *string, key string) {
	if *target == "" {
		*target = os.Getenv(key)
	}
}
