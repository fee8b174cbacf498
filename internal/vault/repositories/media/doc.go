// Package media persists media records in the `media` table. Rows carry the
// sealed descriptive metadata; sealing and unsealing happen in the services
// layer.
package media
