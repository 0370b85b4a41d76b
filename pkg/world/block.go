package world

import "fmt"

// BlockType identifies a kind of block content.
type BlockType uint16

// Built-in block types. The zero type is reserved for "no content".
const (
	TypeNone BlockType = iota
	TypeAir
	TypeCaveAir
	TypeStone
	TypeBedrock
	TypeDirt
	TypeGrass
	TypeSand
	TypeGravel
	TypeWater
	TypeLava
	TypeCobblestone
	TypeBricks
	TypePlanks
	TypeGlass
	TypeLeaves
	TypeOakFence
	TypeIronBars
	TypeGlassPane
	TypeCobblestoneWall
	TypeOakStairs
	TypeStoneStairs
	TypeLadder
	TypeStructureVoid
	TypeBeehive
	TypeRail
)

// Kind groups block types by how their shape reacts to neighbors.
type Kind uint8

const (
	KindSimple Kind = iota
	KindAir
	KindFluid
	KindLeaves
	KindCross // fences, panes and bars
	KindWall
	KindStairs
	KindLadder
	KindStructureVoid
)

// TypeInfo describes static properties of a block type.
type TypeInfo struct {
	Name     string
	Kind     Kind
	Occludes bool
	// BlocksMotion is false for air, fluids and thin decorations.
	BlocksMotion bool
	// ConnectionException blocks never get attached to by fences and walls.
	ConnectionException bool
}

var typeTable = map[BlockType]TypeInfo{
	TypeAir:             {Name: "air", Kind: KindAir},
	TypeCaveAir:         {Name: "cave_air", Kind: KindAir},
	TypeStone:           {Name: "stone", Occludes: true, BlocksMotion: true},
	TypeBedrock:         {Name: "bedrock", Occludes: true, BlocksMotion: true},
	TypeDirt:            {Name: "dirt", Occludes: true, BlocksMotion: true},
	TypeGrass:           {Name: "grass_block", Occludes: true, BlocksMotion: true},
	TypeSand:            {Name: "sand", Occludes: true, BlocksMotion: true},
	TypeGravel:          {Name: "gravel", Occludes: true, BlocksMotion: true},
	TypeWater:           {Name: "water", Kind: KindFluid},
	TypeLava:            {Name: "lava", Kind: KindFluid},
	TypeCobblestone:     {Name: "cobblestone", Occludes: true, BlocksMotion: true},
	TypeBricks:          {Name: "bricks", Occludes: true, BlocksMotion: true},
	TypePlanks:          {Name: "oak_planks", Occludes: true, BlocksMotion: true},
	TypeGlass:           {Name: "glass", BlocksMotion: true},
	TypeLeaves:          {Name: "oak_leaves", Kind: KindLeaves, BlocksMotion: true, ConnectionException: true},
	TypeOakFence:        {Name: "oak_fence", Kind: KindCross, BlocksMotion: true},
	TypeIronBars:        {Name: "iron_bars", Kind: KindCross, BlocksMotion: true},
	TypeGlassPane:       {Name: "glass_pane", Kind: KindCross, BlocksMotion: true},
	TypeCobblestoneWall: {Name: "cobblestone_wall", Kind: KindWall, BlocksMotion: true},
	TypeOakStairs:       {Name: "oak_stairs", Kind: KindStairs, BlocksMotion: true},
	TypeStoneStairs:     {Name: "stone_stairs", Kind: KindStairs, BlocksMotion: true},
	TypeLadder:          {Name: "ladder", Kind: KindLadder, BlocksMotion: true, ConnectionException: true},
	TypeStructureVoid:   {Name: "structure_void", Kind: KindStructureVoid},
	TypeBeehive:         {Name: "beehive", Occludes: true, BlocksMotion: true},
	TypeRail:            {Name: "rail", ConnectionException: true},
}

// LookupType returns the static properties of t.
func LookupType(t BlockType) (TypeInfo, bool) {
	info, ok := typeTable[t]
	return info, ok
}

// Block is a block type plus its packed state bits. Blocks compare with ==.
//
// State layout: bits 0-1 facing, bit 2 half, bits 3-5 stair shape,
// bits 6-13 side connections (2 bits each, indexed by Direction).
type Block struct {
	Type  BlockType
	State uint16
}

// Common blocks.
var (
	None          = Block{}
	Air           = Block{Type: TypeAir}
	CaveAir       = Block{Type: TypeCaveAir}
	Stone         = Block{Type: TypeStone}
	Bedrock       = Block{Type: TypeBedrock}
	Dirt          = Block{Type: TypeDirt}
	Grass         = Block{Type: TypeGrass}
	Water         = Block{Type: TypeWater}
	Lava          = Block{Type: TypeLava}
	Bricks        = Block{Type: TypeBricks}
	Planks        = Block{Type: TypePlanks}
	Glass         = Block{Type: TypeGlass}
	Leaves        = Block{Type: TypeLeaves}
	OakFence      = Block{Type: TypeOakFence}
	GlassPane     = Block{Type: TypeGlassPane}
	Wall          = Block{Type: TypeCobblestoneWall}
	Ladder        = Block{Type: TypeLadder}
	StructureVoid = Block{Type: TypeStructureVoid}
)

// IsNone reports whether b carries no content.
func (b Block) IsNone() bool { return b.Type == TypeNone }

// IsAir reports whether b is passable air.
func (b Block) IsAir() bool { return b.Type == TypeAir || b.Type == TypeCaveAir }

// Info returns the type properties of b. Unknown types report a simple solid.
func (b Block) Info() TypeInfo {
	if info, ok := typeTable[b.Type]; ok {
		return info
	}
	return TypeInfo{Name: fmt.Sprintf("unknown_%d", b.Type), Occludes: true, BlocksMotion: true}
}

// BlocksMotion reports whether entities collide with b.
func (b Block) BlocksMotion() bool { return b.Info().BlocksMotion }

// IsFluid reports whether b is water or lava.
func (b Block) IsFluid() bool { return b.Type == TypeWater || b.Type == TypeLava }

func (b Block) String() string {
	if b.IsNone() {
		return "none"
	}
	if b.State == 0 {
		return b.Info().Name
	}
	return fmt.Sprintf("%s[%#x]", b.Info().Name, b.State)
}

// Half is the vertical half a stair occupies.
type Half uint8

const (
	Bottom Half = iota
	Top
)

// StairShape is the connected shape of a stair block.
type StairShape uint8

const (
	Straight StairShape = iota
	InnerLeft
	InnerRight
	OuterLeft
	OuterRight
)

// WallSide is the connection height of a wall side.
type WallSide uint8

const (
	SideNone WallSide = iota
	SideLow
	SideTall
)

const (
	facingMask = 0x3
	halfBit    = 1 << 2
	shapeShift = 3
	shapeMask  = 0x7 << shapeShift
	sideShift  = 6
)

// Facing returns the facing direction stored in b.
func (b Block) Facing() Direction { return Direction(b.State & facingMask) }

// WithFacing returns b facing d.
func (b Block) WithFacing(d Direction) Block {
	b.State = b.State&^facingMask | uint16(d)
	return b
}

// Half returns the stair half stored in b.
func (b Block) Half() Half {
	if b.State&halfBit != 0 {
		return Top
	}
	return Bottom
}

// WithHalf returns b on half h.
func (b Block) WithHalf(h Half) Block {
	if h == Top {
		b.State |= halfBit
	} else {
		b.State &^= halfBit
	}
	return b
}

// StairShape returns the stair shape stored in b.
func (b Block) StairShape() StairShape {
	return StairShape((b.State & shapeMask) >> shapeShift)
}

// WithStairShape returns b with stair shape s.
func (b Block) WithStairShape(s StairShape) Block {
	b.State = b.State&^shapeMask | uint16(s)<<shapeShift
	return b
}

// Side returns the connection value on side d.
func (b Block) Side(d Direction) WallSide {
	return WallSide((b.State >> (sideShift + 2*uint(d))) & 0x3)
}

// WithSide returns b with side d set to v.
func (b Block) WithSide(d Direction, v WallSide) Block {
	shift := sideShift + 2*uint(d)
	b.State = b.State&^(0x3<<shift) | uint16(v)<<shift
	return b
}

// Connected reports whether side d of a fence-like block is attached.
func (b Block) Connected(d Direction) bool { return b.Side(d) != SideNone }

// WithConnected returns b with side d attached or detached.
func (b Block) WithConnected(d Direction, on bool) Block {
	if on {
		return b.WithSide(d, SideLow)
	}
	return b.WithSide(d, SideNone)
}
