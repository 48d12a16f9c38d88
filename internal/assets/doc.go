// Package assets locates tenant templates and logos on disk.
//
// # Directory Structure
//
// Assets are organized per tenant:
//
//	{basePath}/
//	└── {tenant}/
//	    ├── templates/
//	    │   └── {name}.docx     # DOCX templates
//	    └── logo/
//	        └── logo.png        # Tenant logo, bound to the "logo" image tag
//
// # Security
//
// Tenant and template names come from request headers and are untrusted.
// Names are validated to prevent path traversal, tenants are checked against
// an allow-list, and FilesystemStore resolves symlinks and verifies every
// path stays within basePath.
package assets
