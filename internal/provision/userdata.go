package provision

// cloudInitUserData is passed to every new server. Kept minimal: the
// install scripts fetch everything else themselves, cloud-init only has
// to finish so WaitCloudInit unblocks.
const cloudInitUserData = `#cloud-config
package_update: true
packages:
  - curl
`
