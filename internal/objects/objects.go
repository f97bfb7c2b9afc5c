// Package objects contains wire objects shared by the api and biz layers.
// To avoid circular dependencies, we put them here.
package objects
