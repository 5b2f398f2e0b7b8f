//go:build linux

package main

const rssIsKilobytes = true
