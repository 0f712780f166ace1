// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server exposes plan generation over HTTP.
//
// # Endpoints
//
//   - POST /api/plan     - Generate a plan from a relocation profile
//   - POST /api/progress - Project completion state onto a plan
//   - POST /api/export   - Render a plan as txt, md, json or html
//   - GET  /api/schema   - The RelocationPlan JSON schema
//   - GET  /health       - Health check
//
// Errors are returned as {"error": "..."} with a generic message; the cause
// is logged with the request ID.
//
// # Middleware
//
// Requests pass through panic recovery, request IDs, security headers, CORS,
// request logging and a per-client token bucket, in that order. Forwarded
// client IP headers are trusted only from configured proxies.
//
// # Usage
//
//	srv, err := server.New(pipe, server.Options{
//		Addr:                 "127.0.0.1:8080",
//		RateLimit:            1,
//		RateBurst:            5,
//		CompletionConfigured: cfg.Completion.HasAPIKey(),
//		Logger:               logger,
//	})
//	if err != nil {
//		return err
//	}
//	go srv.ListenAndServe()
//	defer srv.Shutdown(ctx)
package server
