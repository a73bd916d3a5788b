// Copyright 2024 The Tessera authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package resultstore

import (
	"context"
	"fmt"

	secretmanagerpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// AWSSecret fetches a plaintext secret (e.g. a MySQL DSN or an S3 bucket
// access token) from AWS Secrets Manager, for NewMySQLStore/NewS3Store
// callers that do not want credentials passed on the command line.
func AWSSecret(ctx context.Context, secretID string) (string, error) {
	sdkConfig, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("resultstore: failed to load default AWS configuration: %w", err)
	}
	c := secretsmanager.NewFromConfig(sdkConfig)
	out, err := c.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: &secretID})
	if err != nil {
		return "", fmt.Errorf("resultstore: failed to fetch secret %q: %w", secretID, err)
	}
	return *out.SecretString, nil
}

// GCPSecret fetches the latest version of a secret from GCP Secret
// Manager, for NewSpannerStore/NewGCSStore callers running on GCP.
func GCPSecret(ctx context.Context, name string) (string, error) {
	c, err := secretmanager.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("resultstore: failed to create Secret Manager client: %w", err)
	}
	defer c.Close()

	resp, err := c.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("resultstore: failed to access secret %q: %w", name, err)
	}
	return string(resp.Payload.Data), nil
}
