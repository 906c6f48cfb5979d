package main

// @title           Sercha KMS Search API
// @version         1.0
// @description     Hybrid document retrieval API. Ranks document chunks by combining full-text and semantic similarity, with optional conversational query augmentation.

// @contact.name   Sercha OSS
// @contact.url    https://github.com/custodia-labs/sercha-kms/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Format: "Bearer {token}"

import (
	"os"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
