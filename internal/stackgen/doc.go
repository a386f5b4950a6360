// Package stackgen generates the three deployment files written into the
// application clone on every run: the image build definition (Dockerfile),
// the multi-service orchestration definition (docker-compose.yml), and the
// environment file (.env).
//
// Rendering is a pure function of the manifest, the detected host IP, and
// the resolved credentials — identical inputs produce byte-identical
// output, so rewriting the files on every run is idempotent in effect.
// The stack shape itself comes from a compiled-in default manifest,
// optionally overridden by a berth.jsonc file (JSON with comments).
package stackgen
