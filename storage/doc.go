// Package storage archives rendered provisioning scripts in content-addressed
// backends.
//
// Every script served by the download endpoint can be stored under the
// SHA-256 hash of its bytes. The hash is returned to the caller in the
// X-Installer-Script-Id header so that operators can later retrieve exactly
// what a host executed.
//
// # Storage URI Format
//
// Backends are specified using URI format:
//
//	[scheme]://[auth@]host[:port][/path][?params]
//
// Supported URI schemes:
//
//   - file:///var/lib/installer/archive
//   - s3://bucket-name/prefix?region=eu-west-1&endpoint=http://minio:9000
//   - vault://vault.example.com:8200/secret/installer?tls=true
//
// S3 credentials come from the URI user info or the default AWS chain. Vault
// uses the token from VAULT_TOKEN.
//
// # Multiple Backends
//
// MultiStorageBackend writes to every available backend and reads from the
// first one holding the object:
//
//	factory := storage.NewStorageBackendFactory(log)
//	archive, err := factory.CreateMultiBackend(locations)
//	id, err := archive.Store(ctx, script, interfaces.ScriptType)
package storage
