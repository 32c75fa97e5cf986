// Package social provides the demo content surface around the auth core:
// posts, comments, and an admin KPI snapshot. Every write route runs behind
// the session gate; ownership rules (author or admin) are enforced here.
package social
