package gcp

import (
	"os"
	"strings"

	"google.golang.org/api/option"
)

// ClientOptionsFromEnv builds client options shared by the speech and storage
// clients. Credentials come from GOOGLE_APPLICATION_CREDENTIALS_JSON or
// GOOGLE_APPLICATION_CREDENTIALS (inline JSON or a file path); with neither set
// the clients use application default credentials. GCP_QUOTA_PROJECT bills API
// usage to a specific project.
func ClientOptionsFromEnv() []option.ClientOption {
	var opts []option.ClientOption
	if creds := credentialsFromEnv(); creds != "" {
		if strings.HasPrefix(creds, "{") {
			opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
		} else {
			opts = append(opts, option.WithCredentialsFile(creds))
		}
	}
	if qp := strings.TrimSpace(os.Getenv("GCP_QUOTA_PROJECT")); qp != "" {
		opts = append(opts, option.WithQuotaProject(qp))
	}
	return opts
}

func credentialsFromEnv() string {
	for _, k := range []string{"GOOGLE_APPLICATION_CREDENTIALS_JSON", "GOOGLE_APPLICATION_CREDENTIALS"} {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}
