// Provides platform-appropriate paths for nova.
//
// All paths follow XDG conventions on Linux and platform-native conventions
// on macOS and Windows. The name "nova" is used as the subdirectory under
// each base path.
package paths
