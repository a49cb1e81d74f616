// Package album derives albums, their images, and their file-type
// classification by scanning the managed upload root. It keeps no state of
// its own; every call reflects the filesystem at that moment.
package album
