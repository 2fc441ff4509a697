/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package lrucache provides a fixed-capacity in-memory cache with LRU eviction policy,
// usage statistics, eviction notifications, and Prometheus metrics.
//
// Cache keeps the recency order in a doubly linked list over an arena of nodes
// and indexes the nodes by key, so Get, Put, Remove and Contains are O(1).
// Cache is not safe for concurrent use, SyncCache wraps it with a mutex.
package lrucache
