// Package middleware provides SlotStore decorators, such as at-rest encryption of the identity slot.
package middleware
