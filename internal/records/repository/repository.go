// Package repository provides record store backends.
package repository

const recordNotFoundMessage = "record not found"
